package models

import (
	"time"
)

// DefaultAvatar is served to clients whenever a bot is created without a
// usable image URL.
const DefaultAvatar = "/default-avatar.png"

type Bot struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"imageUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	MessageCount int       `json:"messageCount"`
}
