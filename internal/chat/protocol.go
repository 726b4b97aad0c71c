package chat

import (
	"persona-chat/internal/models"
)

type EventType string

const (
	// inbound
	EventJoin EventType = "join"
	EventSend EventType = "send"

	// outbound
	EventHistory EventType = "history"
	EventMessage EventType = "message"
	EventNotice  EventType = "notice"
)

// Envelope is the inbound client frame. The Type discriminant selects which
// of the remaining fields are meaningful.
type Envelope struct {
	Type    EventType `json:"type"`
	BotID   string    `json:"botId,omitempty"`
	Content string    `json:"content,omitempty"`
	Sender  string    `json:"sender,omitempty"`
}

// ServerEvent is the closed set of outbound frames: a full history replay on
// join, a single relayed message, or a unicast notice.
type ServerEvent struct {
	Type     EventType        `json:"type"`
	Messages []models.Message `json:"messages,omitempty"`
	Message  *models.Message  `json:"message,omitempty"`
	Text     string           `json:"text,omitempty"`
}

const (
	NoticeBotNotFound  = "Bot not found"
	NoticeEmptyMessage = "Message cannot be empty"
	NoticeTooLong      = "Message is too long (max 1000 characters)"
	NoticeNotJoined    = "Join a bot room before sending"
	NoticeRoomMismatch = "Message does not match the joined room"
	FallbackReply      = "Sorry, I'm having some trouble right now. Please try again later."
	DefaultSenderName  = "Guest"
	MaxMessageLength   = 1000
)
