package push

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hardwire/service/storage"

	"github.com/gin-gonic/gin"
)

type fakeNotifStore struct {
	mu          sync.Mutex
	inserted    []storage.Notification
	subs        []storage.PushSubscription
	failInsert  bool
	insertCalls int
}

func (f *fakeNotifStore) InsertNotification(_ context.Context, userID, title, body string, data map[string]any) (*storage.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.failInsert {
		return nil, context.DeadlineExceeded
	}
	n := storage.Notification{
		ID:        int64(len(f.inserted) + 1),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Data:      data,
		Type:      "message",
		CreatedAt: time.Now(),
	}
	f.inserted = append(f.inserted, n)
	return &n, nil
}

func (f *fakeNotifStore) ActiveSubscriptions(_ context.Context, _ string) ([]storage.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs, nil
}

func newPushRig(t *testing.T, store *fakeNotifStore) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := NewSender(store, VapidKeys{PublicKey: "pub", PrivateKey: "priv", Email: "ops@hardwire.dev"})
	r := gin.New()
	r.POST("/push", s.HandleSendPush)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func postPush(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/push", "application/json", bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("POST /push: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPushMissingFields(t *testing.T) {
	store := &fakeNotifStore{}
	ts := newPushRig(t, store)

	resp := postPush(t, ts, `{"user_id":"u1","title":"hi"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}

	store.mu.Lock()
	calls := store.insertCalls
	store.mu.Unlock()
	if calls != 0 {
		t.Fatalf("insert called %d times on a rejected request", calls)
	}
}

func TestPushInsertFailure(t *testing.T) {
	store := &fakeNotifStore{failInsert: true}
	ts := newPushRig(t, store)

	resp := postPush(t, ts, `{"user_id":"u1","title":"t","body":"b"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestPushDispatchesWebPush(t *testing.T) {
	got := make(chan *http.Request, 1)
	var gotBody []byte
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		got <- r
		w.WriteHeader(http.StatusCreated)
	}))
	defer endpoint.Close()

	store := &fakeNotifStore{
		subs: []storage.PushSubscription{{Endpoint: endpoint.URL, P256dhKey: "p", AuthKey: "a"}},
	}
	ts := newPushRig(t, store)

	resp := postPush(t, ts, `{"user_id":"u1","title":"New message","body":"hi","data":{"chat":"u2"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true || body["notification"] == nil {
		t.Fatalf("response = %v", body)
	}

	select {
	case r := <-got:
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "vapid t=pub") {
			t.Fatalf("authorization header = %q", auth)
		}
		var payload map[string]any
		if err := json.Unmarshal(gotBody, &payload); err != nil {
			t.Fatalf("payload: %v", err)
		}
		if payload["tag"] != "hardwire-message" || payload["title"] != "New message" {
			t.Fatalf("payload = %v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("web push was never dispatched")
	}
}

func TestPushEndpointFailureStillOK(t *testing.T) {
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer endpoint.Close()

	store := &fakeNotifStore{
		subs: []storage.PushSubscription{{Endpoint: endpoint.URL}},
	}
	ts := newPushRig(t, store)

	// the caller already has its 200 before dispatch runs; a dead endpoint
	// must not change that
	resp := postPush(t, ts, `{"user_id":"u1","title":"t","body":"b"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
