package repository

import (
	"sync"

	"persona-chat/internal/models"
)

// ConversationLog holds the append-only message history per bot. Entries are
// never truncated; ordering is append order.
type ConversationLog struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
}

func NewConversationLog() *ConversationLog {
	return &ConversationLog{
		messages: make(map[string][]models.Message),
	}
}

// Ensure allocates an empty log for a freshly created bot.
func (l *ConversationLog) Ensure(botID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.messages[botID]; !ok {
		l.messages[botID] = make([]models.Message, 0)
	}
}

// Append stores a message at the end of the bot's log. A missing log is
// created on the fly rather than erroring; bot creation and log creation
// live in two maps and the log side may not have caught up.
func (l *ConversationLog) Append(botID string, msg models.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages[botID] = append(l.messages[botID], msg)
}

// History returns a copy of the bot's log in append order, empty for an
// unknown bot.
func (l *ConversationLog) History(botID string) []models.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	history := make([]models.Message, len(l.messages[botID]))
	copy(history, l.messages[botID])
	return history
}
