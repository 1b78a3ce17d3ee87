package chat

import (
	"encoding/json"
	"fmt"

	"hardwire/service/storage"
)

// Frame types on the wire. Text frames, JSON, "type" discriminator.
type FrameType string

const (
	// client -> server
	FrameAuth    FrameType = "auth"
	FrameMessage FrameType = "message"

	// server -> client
	FrameAuthSuccess FrameType = "auth_success"
	FrameNewMessage  FrameType = "new_message"
	FrameMessageSent FrameType = "message_sent"
	FrameError       FrameType = "error"
)

type AuthFrame struct {
	UserID string `json:"userId"`
}

type MessageFrame struct {
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	MessageText string `json:"messageText"`
}

// Frame is the parsed inbound frame. Exactly one of the payload pointers is
// set, matching Type; dispatch switches on Type once, at the boundary.
type Frame struct {
	Type    FrameType
	Auth    *AuthFrame
	Message *MessageFrame
}

// rawFrame is the flat wire shape; payload fields live beside "type".
type rawFrame struct {
	Type        FrameType `json:"type"`
	UserID      string    `json:"userId"`
	SenderID    string    `json:"senderId"`
	ReceiverID  string    `json:"receiverId"`
	MessageText string    `json:"messageText"`
}

// ParseFrame decodes one inbound text frame. Unknown types come back as an
// error so the caller can answer with an error frame instead of dropping
// them silently.
func ParseFrame(raw []byte) (*Frame, error) {
	var rf rawFrame
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	switch rf.Type {
	case FrameAuth:
		return &Frame{Type: FrameAuth, Auth: &AuthFrame{UserID: rf.UserID}}, nil
	case FrameMessage:
		return &Frame{
			Type: FrameMessage,
			Message: &MessageFrame{
				SenderID:    rf.SenderID,
				ReceiverID:  rf.ReceiverID,
				MessageText: rf.MessageText,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown frame type %q", rf.Type)
	}
}

// ---- server-side frame builders ----

type authSuccessFrame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}

type messageSentFrame struct {
	Type      FrameType `json:"type"`
	MessageID int64     `json:"messageId"`
}

type newMessageFrame struct {
	Type    FrameType        `json:"type"`
	Message *storage.Message `json:"message"`
}

type errorFrame struct {
	Type    FrameType `json:"type"`
	Message string    `json:"message"`
}

func BuildAuthSuccess() any {
	return &authSuccessFrame{Type: FrameAuthSuccess, Message: "authenticated"}
}

func BuildMessageSent(messageID int64) any {
	return &messageSentFrame{Type: FrameMessageSent, MessageID: messageID}
}

func BuildNewMessage(m *storage.Message) any {
	return &newMessageFrame{Type: FrameNewMessage, Message: m}
}

func BuildError(msg string) any {
	return &errorFrame{Type: FrameError, Message: msg}
}
