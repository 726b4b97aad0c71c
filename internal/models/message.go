package models

import (
	"time"

	"github.com/google/uuid"
)

type MessageType string

const (
	TypeUser MessageType = "user"
	TypeBot  MessageType = "bot"
)

type Message struct {
	ID        string      `json:"id"`
	BotID     string      `json:"botId"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Sender    string      `json:"sender"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewID returns a prefixed UUIDv7. The time-ordered prefix keeps ids
// collision-free over a long-running process, the random tail keeps them
// unguessable.
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "_" + id.String()
}
