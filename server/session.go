package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"chitchat/chat"
	"chitchat/protocol"
)

const (
	maxFrameSize   = 64 * 1024
	sendBufferSize = 64
	pingInterval   = 30 * time.Second
)

// Session is one live push connection. It starts unbound, binds to an
// identity exactly once on join, and tears down exactly once on any exit
// path. Reconnects are new sessions with new handles.
type Session struct {
	id     string
	server *Server
	conn   *websocket.Conn
	send   chan protocol.Event
	done   chan struct{}

	mu     sync.Mutex
	userID string // empty while unbound

	closeOnce sync.Once
}

func newSession(s *Server, conn *websocket.Conn) *Session {
	return &Session{
		id:     uuid.NewString(),
		server: s,
		conn:   conn,
		send:   make(chan protocol.Event, sendBufferSize),
		done:   make(chan struct{}),
	}
}

// Send queues an event for delivery. It never blocks: when the buffer is
// full the event is dropped, delivery being best-effort.
func (s *Session) Send(e protocol.Event) {
	select {
	case s.send <- e:
	default:
		log.Debug().Str("session", s.id).Str("event", e.Type).Msg("send buffer full, event dropped")
	}
}

func (s *Session) user() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) readPump() {
	defer s.teardown()

	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session", s.id).Msg("unexpected close")
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.server.config.ReadTimeout))

		event, err := protocol.Parse(raw)
		if err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("bad event")
			s.Send(protocol.Error("invalid event"))
			continue
		}

		switch event.Type {
		case protocol.EventJoin:
			s.handleJoin(event)
		case protocol.EventTyping:
			s.handleTyping(event)
		case protocol.EventMessage:
			s.handleMessage(event)
		case protocol.EventDisconnect:
			return
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case event := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
			if err := s.conn.WriteJSON(event); err != nil {
				log.Debug().Err(err).Str("session", s.id).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.server.config.WriteTimeout))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleJoin binds the session's handle into the presence registry. A
// session binds exactly once; a second join is rejected.
func (s *Session) handleJoin(event protocol.Event) {
	var payload protocol.JoinPayload
	if err := event.Decode(&payload); err != nil || payload.UserID == "" {
		s.Send(protocol.Error("join requires userId"))
		return
	}

	s.mu.Lock()
	if s.userID != "" {
		s.mu.Unlock()
		s.Send(protocol.Error("session already joined"))
		return
	}
	s.userID = payload.UserID
	s.mu.Unlock()

	first := s.server.registry.Bind(payload.UserID, s)
	log.Info().Str("session", s.id).Str("user", payload.UserID).Bool("first", first).Msg("session joined")

	// Only the offline-to-online transition is announced; extra devices
	// join silently.
	if first {
		s.server.broadcastStatus(payload.UserID, protocol.StatusOnline)
	}
}

func (s *Session) handleTyping(event protocol.Event) {
	userID := s.user()
	if userID == "" {
		s.Send(protocol.Error("join first"))
		return
	}

	// The payload sender is ignored; the bound identity is authoritative.
	s.server.broadcastTyping(userID)
}

// handleMessage routes a push-channel send through the same delivery path
// as the HTTP surface. The persisted record is echoed back to the sender
// as its durable confirmation.
func (s *Session) handleMessage(event protocol.Event) {
	userID := s.user()
	if userID == "" {
		s.Send(protocol.Error("join first"))
		return
	}

	var payload protocol.SendPayload
	if err := event.Decode(&payload); err != nil {
		s.Send(protocol.Error("invalid message payload"))
		return
	}

	msg, err := s.server.chat.SendMessage(userID, payload.ReceiverID, payload.Text, payload.FileURL, payload.AttachmentNote)
	if err != nil {
		s.Send(protocol.Error(sendFailure(err)))
		return
	}

	s.Send(protocol.ReceiveMessage(msg))
}

func sendFailure(err error) string {
	var storageErr *chat.StorageError
	switch {
	case errors.Is(err, chat.ErrInvalidPayload):
		return "message must contain text or a file URL"
	case errors.Is(err, chat.ErrNotFound):
		return "receiver not found"
	case errors.As(err, &storageErr):
		return "failed to send message"
	default:
		return "failed to send message"
	}
}

// teardown runs exactly once per session regardless of which side closed
// the connection. If the session was bound it unbinds its own handle; a
// newer handle for the same user is never touched.
func (s *Session) teardown() {
	s.closeOnce.Do(func() {
		s.server.removeSession(s)

		userID, last := s.server.registry.Unbind(s)
		if userID != "" {
			log.Info().Str("session", s.id).Str("user", userID).Bool("last", last).Msg("session closed")
			if last {
				s.server.broadcastStatus(userID, protocol.StatusOffline)
			}
		} else {
			log.Info().Str("session", s.id).Msg("unbound session closed")
		}

		close(s.done)
		_ = s.conn.Close()
	})
}
