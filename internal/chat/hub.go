package chat

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"persona-chat/internal/models"
	"persona-chat/internal/persona"
	"persona-chat/internal/repository"
)

// JoinRequest asks the hub to bind a connection to a bot's room.
type JoinRequest struct {
	Client *Client
	BotID  string
}

// SendRequest carries one user message into the hub.
type SendRequest struct {
	Client  *Client
	BotID   string
	Content string
	Sender  string
}

// reply is the single terminal result of one spawned responder call, success
// or fallback alike.
type reply struct {
	botID   string
	content string
	sender  string
}

// Hub serializes every mutation of the registry, the conversation log and
// room membership through its Run loop. Responder calls are the only thing
// that leaves the loop; each comes back as exactly one reply event.
type Hub struct {
	bots         *repository.BotRegistry
	history      *repository.ConversationLog
	responder    persona.Responder
	replyTimeout time.Duration

	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Join       chan JoinRequest
	Send       chan SendRequest
	replies    chan reply
	Quit       chan struct{}
}

func NewHub(bots *repository.BotRegistry, history *repository.ConversationLog, responder persona.Responder, replyTimeout time.Duration) *Hub {
	log.Println("[HUB] Initializing new Hub instance...")
	if replyTimeout <= 0 {
		replyTimeout = persona.DefaultTimeout
	}
	return &Hub{
		bots:         bots,
		history:      history,
		responder:    responder,
		replyTimeout: replyTimeout,
		clients:      make(map[*Client]bool),
		rooms:        make(map[string]map[*Client]bool),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		Join:         make(chan JoinRequest),
		Send:         make(chan SendRequest),
		replies:      make(chan reply, 256),
		Quit:         make(chan struct{}),
	}
}

func (h *Hub) Run() {
	log.Println("[HUB] Main loop started. Listening for events...")
	for {
		select {
		case <-h.Quit:
			log.Println("[HUB] Quit signal received. Shutting down all client connections...")
			for client := range h.clients {
				h.cleanupClient(client)
			}
			return

		case client := <-h.Register:
			h.clients[client] = true
			log.Printf("[HUB] Connection registered: %s. Total active: %d", client.ID, len(h.clients))

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				h.cleanupClient(client)
				log.Printf("[HUB] Connection closed: %s. Active clients remaining: %d", client.ID, len(h.clients))
			}

		case req := <-h.Join:
			h.handleJoin(req)

		case req := <-h.Send:
			h.handleSend(req)

		case r := <-h.replies:
			h.handleReply(r)
		}
	}
}

func (h *Hub) handleJoin(req JoinRequest) {
	if !h.clients[req.Client] {
		// connection was already evicted; its Send channel is gone
		return
	}
	if _, err := h.bots.Get(req.BotID); err != nil {
		log.Printf("[HUB] Join rejected for %s: unknown bot %s", req.Client.ID, req.BotID)
		h.unicast(req.Client, ServerEvent{Type: EventNotice, Text: NoticeBotNotFound})
		return
	}

	if req.Client.room != "" {
		h.leaveRoom(req.Client)
	}
	req.Client.room = req.BotID
	if h.rooms[req.BotID] == nil {
		h.rooms[req.BotID] = make(map[*Client]bool)
	}
	h.rooms[req.BotID][req.Client] = true

	replay := h.history.History(req.BotID)
	log.Printf("[HUB] %s joined room %s, replaying %d messages", req.Client.ID, req.BotID, len(replay))
	h.unicast(req.Client, ServerEvent{Type: EventHistory, Messages: replay})
}

func (h *Hub) handleSend(req SendRequest) {
	if !h.clients[req.Client] {
		return
	}
	if req.Client.room == "" {
		h.unicast(req.Client, ServerEvent{Type: EventNotice, Text: NoticeNotJoined})
		return
	}
	if req.BotID != req.Client.room {
		h.unicast(req.Client, ServerEvent{Type: EventNotice, Text: NoticeRoomMismatch})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		h.unicast(req.Client, ServerEvent{Type: EventNotice, Text: NoticeEmptyMessage})
		return
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		h.unicast(req.Client, ServerEvent{Type: EventNotice, Text: NoticeTooLong})
		return
	}

	bot, err := h.bots.Get(req.BotID)
	if err != nil {
		h.unicast(req.Client, ServerEvent{Type: EventNotice, Text: NoticeBotNotFound})
		return
	}

	sender := strings.TrimSpace(req.Sender)
	if sender == "" {
		sender = DefaultSenderName
	}

	userMessage := models.Message{
		ID:        models.NewID("msg"),
		BotID:     bot.ID,
		Type:      models.TypeUser,
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now(),
	}

	h.history.Append(bot.ID, userMessage)
	h.bots.IncrementMessageCount(bot.ID)
	h.multicast(bot.ID, ServerEvent{Type: EventMessage, Message: &userMessage})

	// The generation call runs outside the loop; its one terminal result
	// (generated or fallback) re-enters through h.replies.
	go h.generateReply(bot.ID, bot.Name, bot.Description, content)
}

func (h *Hub) generateReply(botID, botName, description, userText string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.replyTimeout)
	defer cancel()

	content, err := h.responder.Respond(ctx, description, userText)
	if err != nil {
		log.Printf("[HUB] Responder failed for bot %s: %v", botID, err)
		content = FallbackReply
	}

	select {
	case h.replies <- reply{botID: botID, content: content, sender: botName}:
	case <-h.Quit:
	}
}

func (h *Hub) handleReply(r reply) {
	botMessage := models.Message{
		ID:        models.NewID("msg"),
		BotID:     r.botID,
		Type:      models.TypeBot,
		Content:   r.content,
		Sender:    r.sender,
		Timestamp: time.Now(),
	}

	// Appended and broadcast even if everyone left the room mid-call; the
	// log stays authoritative regardless of who is listening.
	h.history.Append(r.botID, botMessage)
	h.bots.IncrementMessageCount(r.botID)
	h.multicast(r.botID, ServerEvent{Type: EventMessage, Message: &botMessage})
}

func (h *Hub) unicast(c *Client, event ServerEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[HUB] Marshal error: %v", err)
		return
	}
	select {
	case c.Send <- payload:
	default:
		log.Printf("[HUB] WARNING: Client %s buffer full. Evicting slow consumer.", c.ID)
		go func() { h.Unregister <- c }()
	}
}

func (h *Hub) multicast(botID string, event ServerEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[HUB] Marshal error: %v", err)
		return
	}
	for client := range h.rooms[botID] {
		select {
		case client.Send <- payload:
		default:
			log.Printf("[HUB] WARNING: Client %s buffer full. Evicting slow consumer.", client.ID)
			go func(c *Client) { h.Unregister <- c }(client)
		}
	}
}

func (h *Hub) leaveRoom(c *Client) {
	if c.room == "" {
		return
	}
	if members, ok := h.rooms[c.room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, c.room)
		}
	}
	c.room = ""
}

func (h *Hub) cleanupClient(c *Client) {
	c.once.Do(func() {
		h.leaveRoom(c)
		delete(h.clients, c)
		c.Conn.Close()
		close(c.Send)
	})
}
