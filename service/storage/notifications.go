package storage

import (
	"context"
	"time"

	errs "hardwire/tools/errs"
)

type Notification struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data"`
	Type      string         `json:"type"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
}

type PushSubscription struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dh_key"`
	AuthKey   string `json:"auth_key"`
}

const insertNotificationSQL = `
INSERT INTO notifications (user_id, title, body, data, type, is_read)
VALUES ($1, $2, $3, $4, 'message', false)
RETURNING id, created_at`

// InsertNotification records the notification row. Always type=message,
// unread; the web client flips is_read itself.
func (s *Store) InsertNotification(ctx context.Context, userID, title, body string, data map[string]any) (*Notification, error) {
	if data == nil {
		data = map[string]any{}
	}
	n := &Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Data:   data,
		Type:   "message",
	}
	err := s.pool.QueryRow(ctx, insertNotificationSQL, userID, title, body, data).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return nil, errs.WrapMsg(err, "insert notification", "user", userID)
	}
	return n, nil
}

const activeSubscriptionsSQL = `
SELECT endpoint, p256dh_key, auth_key
FROM push_subscriptions
WHERE user_id = $1 AND is_active = true`

func (s *Store) ActiveSubscriptions(ctx context.Context, userID string) ([]PushSubscription, error) {
	rows, err := s.pool.Query(ctx, activeSubscriptionsSQL, userID)
	if err != nil {
		return nil, errs.WrapMsg(err, "list push subscriptions", "user", userID)
	}
	defer rows.Close()

	var out []PushSubscription
	for rows.Next() {
		var sub PushSubscription
		if err := rows.Scan(&sub.Endpoint, &sub.P256dhKey, &sub.AuthKey); err != nil {
			return nil, errs.WrapMsg(err, "scan subscription row")
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate subscription rows")
	}
	return out, nil
}
