package chat

import (
	"encoding/json"
	"testing"
	"time"

	"hardwire/service/storage"
)

func TestParseFrameAuth(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"auth","userId":"u1"}`))
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if f.Type != FrameAuth {
		t.Fatalf("type = %q, want auth", f.Type)
	}
	if f.Auth == nil || f.Auth.UserID != "u1" {
		t.Fatalf("auth payload = %+v, want userId u1", f.Auth)
	}
	if f.Message != nil {
		t.Fatalf("message payload should be nil for auth frame")
	}
}

func TestParseFrameMessage(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"message","senderId":"u1","receiverId":"u2","messageText":"hi"}`))
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if f.Type != FrameMessage {
		t.Fatalf("type = %q, want message", f.Type)
	}
	m := f.Message
	if m == nil || m.SenderID != "u1" || m.ReceiverID != "u2" || m.MessageText != "hi" {
		t.Fatalf("message payload = %+v", m)
	}
}

func TestParseFrameUnknownType(t *testing.T) {
	if _, err := ParseFrame([]byte(`{"type":"ping"}`)); err == nil {
		t.Fatal("expected error for unknown frame type")
	}
}

func TestParseFrameBadJSON(t *testing.T) {
	if _, err := ParseFrame([]byte(`{"type":`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestBuildNewMessageShape(t *testing.T) {
	msg := &storage.Message{
		ID:          42,
		SenderID:    "u1",
		ReceiverID:  "u2",
		MessageText: "hello",
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(BuildNewMessage(msg))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["type"] != "new_message" {
		t.Fatalf("type = %v", out["type"])
	}
	inner, ok := out["message"].(map[string]any)
	if !ok {
		t.Fatalf("message field = %T", out["message"])
	}
	if inner["id"] != float64(42) || inner["sender_id"] != "u1" || inner["message_text"] != "hello" {
		t.Fatalf("message body = %v", inner)
	}
}

func TestBuildMessageSentShape(t *testing.T) {
	b, _ := json.Marshal(BuildMessageSent(7))
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["type"] != "message_sent" || out["messageId"] != float64(7) {
		t.Fatalf("frame = %v", out)
	}
}
