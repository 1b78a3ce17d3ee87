package storage

import (
	"context"
	"time"

	errs "hardwire/tools/errs"
)

// Message is one row of the messages table, with the sender's display meta
// joined in from users. Field names match what the web client already reads.
type Message struct {
	ID              int64     `json:"id"`
	SenderID        string    `json:"sender_id"`
	ReceiverID      string    `json:"receiver_id"`
	MessageText     string    `json:"message_text"`
	CreatedAt       time.Time `json:"created_at"`
	SenderName      string    `json:"sender_name,omitempty"`
	SenderAvatarURL string    `json:"sender_avatar_url,omitempty"`
}

const insertMessageSQL = `
WITH ins AS (
	INSERT INTO messages (sender_id, receiver_id, message_text)
	VALUES ($1, $2, $3)
	RETURNING id, sender_id, receiver_id, message_text, created_at
)
SELECT ins.id, ins.sender_id, ins.receiver_id, ins.message_text, ins.created_at,
       COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
FROM ins
LEFT JOIN users u ON u.id = ins.sender_id`

// InsertMessage persists one chat message. The id and created_at are
// assigned by the database; the sender meta rides along in the same round
// trip so the relay can push a fully formed new_message frame.
func (s *Store) InsertMessage(ctx context.Context, senderID, receiverID, text string) (*Message, error) {
	var m Message
	err := s.pool.QueryRow(ctx, insertMessageSQL, senderID, receiverID, text).Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.MessageText, &m.CreatedAt,
		&m.SenderName, &m.SenderAvatarURL,
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "insert message", "sender", senderID, "receiver", receiverID)
	}
	return &m, nil
}

const listConversationSQL = `
SELECT m.id, m.sender_id, m.receiver_id, m.message_text, m.created_at,
       COALESCE(u.name, ''), COALESCE(u.avatar_url, '')
FROM messages m
LEFT JOIN users u ON u.id = m.sender_id
WHERE (m.sender_id = $1 AND m.receiver_id = $2)
   OR (m.sender_id = $2 AND m.receiver_id = $1)
ORDER BY m.created_at ASC`

// ListConversation returns the full history between the unordered pair
// {userID, otherUserID}, ascending by creation time. This is the pull path
// clients reconcile from, so it never filters or pages.
func (s *Store) ListConversation(ctx context.Context, userID, otherUserID string) ([]Message, error) {
	rows, err := s.pool.Query(ctx, listConversationSQL, userID, otherUserID)
	if err != nil {
		return nil, errs.WrapMsg(err, "list conversation", "user", userID, "other", otherUserID)
	}
	defer rows.Close()

	out := make([]Message, 0, 64)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.MessageText, &m.CreatedAt,
			&m.SenderName, &m.SenderAvatarURL); err != nil {
			return nil, errs.WrapMsg(err, "scan conversation row")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate conversation rows")
	}
	return out, nil
}
