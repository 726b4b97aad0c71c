// Package session is the client half of the chat protocol: one logical
// connection per bot page. It keeps no message state of its own; after a
// reconnect the caller joins again and receives the full history replay.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"persona-chat/internal/chat"
)

type Session struct {
	conn *websocket.Conn

	// Events delivers every decoded server frame in arrival order. It is
	// closed when the connection goes away.
	Events chan chat.ServerEvent

	writeMu   sync.Mutex
	closeOnce sync.Once

	mu      sync.Mutex
	readErr error
	closed  bool
}

// Dial connects to the broker's websocket endpoint (ws:// or wss:// URL).
func Dial(ctx context.Context, url string) (*Session, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s := &Session{
		conn:   conn,
		Events: make(chan chat.ServerEvent, 64),
	}
	go s.readLoop()
	return s, nil
}

func (s *Session) Join(botID string) error {
	return s.write(chat.Envelope{Type: chat.EventJoin, BotID: botID})
}

func (s *Session) Send(botID, content, sender string) error {
	return s.write(chat.Envelope{
		Type:    chat.EventSend,
		BotID:   botID,
		Content: content,
		Sender:  sender,
	})
}

func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// Err reports why the event stream ended: nil after a deliberate Close,
// otherwise the transport error. Callers use it to decide whether a
// reconnect-and-rejoin is worth attempting.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.readErr
}

func (s *Session) write(envelope chat.Envelope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(envelope)
}

func (s *Session) readLoop() {
	defer func() {
		close(s.Events)
		s.conn.Close()
	}()

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			return
		}

		// The server batches queued frames into one websocket message,
		// newline-separated.
		for _, raw := range bytes.Split(frame, []byte{'\n'}) {
			if len(raw) == 0 {
				continue
			}
			var event chat.ServerEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				continue
			}
			s.Events <- event
		}
	}
}
