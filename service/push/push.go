package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hardwire/logger"
	"hardwire/service/storage"
	"hardwire/tools/safe"

	"github.com/gin-gonic/gin"
)

const dispatchTimeout = 30 * time.Second

// NotificationStore is what the push endpoint needs from the durable store.
type NotificationStore interface {
	InsertNotification(ctx context.Context, userID, title, body string, data map[string]any) (*storage.Notification, error)
	ActiveSubscriptions(ctx context.Context, userID string) ([]storage.PushSubscription, error)
}

type VapidKeys struct {
	PublicKey  string
	PrivateKey string
	Email      string
}

// Sender records a notification row and best-effort dispatches web-push to
// every active subscription. Upstream callers hit this after a message is
// sent; the relay itself never does.
type Sender struct {
	store  NotificationStore
	vapid  VapidKeys
	client *http.Client
}

func NewSender(store NotificationStore, vapid VapidKeys) *Sender {
	safe.MustNotNil(store, "store")
	return &Sender{
		store:  store,
		vapid:  vapid,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendPushRequest struct {
	UserID string         `json:"user_id" binding:"required"`
	Title  string         `json:"title" binding:"required"`
	Body   string         `json:"body" binding:"required"`
	Data   map[string]any `json:"data"`
}

// HandleSendPush answers as soon as the notification row is written. The
// web-push fan-out runs detached: its failures must not reach a caller that
// already got its 200.
func (s *Sender) HandleSendPush(c *gin.Context) {
	var req sendPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields: user_id, title, body"})
		return
	}

	n, err := s.store.InsertNotification(c.Request.Context(), req.UserID, req.Title, req.Body, req.Data)
	if err != nil {
		logger.Errorf("[Push] insert notification failed user=%s err=%v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create notification"})
		return
	}

	safe.SafeGo(func() {
		s.dispatch(req.UserID, req.Title, req.Body, req.Data)
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "notification": n})
}

func (s *Sender) dispatch(userID, title, body string, data map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	subs, err := s.store.ActiveSubscriptions(ctx, userID)
	if err != nil {
		logger.Errorf("[Push] load subscriptions failed user=%s err=%v", userID, err)
		return
	}
	if len(subs) == 0 {
		logger.Infof("[Push] no active subscriptions user=%s", userID)
		return
	}

	logger.Infof("[Push] dispatching user=%s subs=%d", userID, len(subs))
	for _, sub := range subs {
		if err := s.sendWebPush(ctx, sub, title, body, data); err != nil {
			logger.Warnf("[Push] endpoint failed user=%s err=%v", userID, err)
		}
	}
}

func (s *Sender) sendWebPush(ctx context.Context, sub storage.PushSubscription, title, body string, data map[string]any) error {
	if s.vapid.PublicKey == "" || s.vapid.PrivateKey == "" || s.vapid.Email == "" {
		return fmt.Errorf("VAPID keys not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"title": title,
		"body":  body,
		"data":  data,
		"icon":  "/icon-192x192.png",
		"badge": "/badge-72x72.png",
		"tag":   "hardwire-message",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Authorization", fmt.Sprintf("vapid t=%s, k=%s", s.vapid.PublicKey, s.vapid.PrivateKey))
	req.Header.Set("Crypto-Key", "p256ecdsa="+s.vapid.PublicKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push notification failed: %d", resp.StatusCode)
	}
	return nil
}
