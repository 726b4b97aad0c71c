package repository

import (
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"persona-chat/internal/models"
)

const (
	maxNameLength        = 50
	maxDescriptionLength = 500
)

type botEntry struct {
	bot models.Bot
	seq uint64
}

// BotRegistry is the process-lifetime store of bot definitions. Bots are
// never deleted; the only mutation after creation is the message counter.
type BotRegistry struct {
	mu      sync.RWMutex
	bots    map[string]*botEntry
	nextSeq uint64
}

func NewBotRegistry() *BotRegistry {
	return &BotRegistry{
		bots: make(map[string]*botEntry),
	}
}

func (r *BotRegistry) Create(name, description, imageURL string) (*models.Bot, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len([]rune(name)) > maxNameLength {
		return nil, &ValidationError{Field: "name", Reason: "must be at most 50 characters"}
	}
	if description == "" {
		return nil, &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if len([]rune(description)) > maxDescriptionLength {
		return nil, &ValidationError{Field: "description", Reason: "must be at most 500 characters"}
	}

	bot := models.Bot{
		ID:          models.NewID("bot"),
		Name:        name,
		Description: description,
		ImageURL:    normalizeImageURL(imageURL),
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	r.nextSeq++
	r.bots[bot.ID] = &botEntry{bot: bot, seq: r.nextSeq}
	r.mu.Unlock()

	log.Printf("[REGISTRY] Bot created: %s (%s)", bot.Name, bot.ID)

	out := bot
	return &out, nil
}

func (r *BotRegistry) Get(id string) (*models.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.bots[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := entry.bot
	return &out, nil
}

// List returns every bot, newest first. Same-tick creations keep reverse
// insertion order.
func (r *BotRegistry) List() []*models.Bot {
	r.mu.RLock()
	entries := make([]*botEntry, 0, len(r.bots))
	for _, entry := range r.bots {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].bot.CreatedAt.Equal(entries[j].bot.CreatedAt) {
			return entries[i].bot.CreatedAt.After(entries[j].bot.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	bots := make([]*models.Bot, 0, len(entries))
	for _, entry := range entries {
		out := entry.bot
		bots = append(bots, &out)
	}
	return bots
}

// IncrementMessageCount is a silent no-op for unknown ids; the caller has
// already dealt with the missing bot by the time messages flow.
func (r *BotRegistry) IncrementMessageCount(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.bots[id]; ok {
		entry.bot.MessageCount++
	}
}

func normalizeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.DefaultAvatar
	}
	u, err := url.Parse(raw)
	if err != nil {
		return models.DefaultAvatar
	}
	if u.Scheme != "" && u.Host != "" {
		return raw
	}
	if strings.HasPrefix(u.Path, "/") && u.Scheme == "" {
		return raw
	}
	return models.DefaultAvatar
}
