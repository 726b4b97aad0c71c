package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-chat/internal/models"
)

func makeMessage(botID, content string) models.Message {
	return models.Message{
		ID:        models.NewID("msg"),
		BotID:     botID,
		Type:      models.TypeUser,
		Content:   content,
		Sender:    "Guest",
		Timestamp: time.Now(),
	}
}

func TestHistoryEmptyForUnknownBot(t *testing.T) {
	l := NewConversationLog()

	history := l.History("bot_missing")
	assert.Empty(t, history)
}

func TestAppendAndHistoryOrder(t *testing.T) {
	l := NewConversationLog()

	l.Append("bot_1", makeMessage("bot_1", "one"))
	l.Append("bot_1", makeMessage("bot_1", "two"))
	l.Append("bot_1", makeMessage("bot_1", "three"))

	history := l.History("bot_1")
	require.Len(t, history, 3)
	assert.Equal(t, "one", history[0].Content)
	assert.Equal(t, "two", history[1].Content)
	assert.Equal(t, "three", history[2].Content)
}

func TestAppendCreatesMissingLog(t *testing.T) {
	l := NewConversationLog()

	// no Ensure beforehand
	l.Append("bot_untracked", makeMessage("bot_untracked", "hello"))

	history := l.History("bot_untracked")
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
}

func TestHistoryIsIdempotent(t *testing.T) {
	l := NewConversationLog()

	l.Append("bot_1", makeMessage("bot_1", "one"))
	l.Append("bot_1", makeMessage("bot_1", "two"))

	first := l.History("bot_1")
	second := l.History("bot_1")
	assert.Equal(t, first, second)
}

func TestHistoryReturnsCopy(t *testing.T) {
	l := NewConversationLog()

	l.Append("bot_1", makeMessage("bot_1", "original"))

	history := l.History("bot_1")
	history[0].Content = "tampered"

	fresh := l.History("bot_1")
	assert.Equal(t, "original", fresh[0].Content)
}

func TestLogIsolationBetweenBots(t *testing.T) {
	l := NewConversationLog()

	l.Ensure("bot_a")
	l.Ensure("bot_b")
	l.Append("bot_a", makeMessage("bot_a", "for a"))

	assert.Len(t, l.History("bot_a"), 1)
	assert.Empty(t, l.History("bot_b"))
}
