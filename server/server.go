// Package server owns the push channel: it upgrades connections,
// runs one session per websocket, and broadcasts presence and typing
// events to the affected users' live connections.
package server

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"chitchat/chat"
	"chitchat/presence"
	"chitchat/protocol"
)

type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CheckOrigin  func(r *http.Request) bool
}

type Server struct {
	chat     *chat.Service
	registry *presence.Registry
	config   *Config
	upgrader websocket.Upgrader

	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

func New(svc *chat.Service, config *Config) *Server {
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 120 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	checkOrigin := config.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}

	return &Server{
		chat:     svc,
		registry: svc.Registry(),
		config:   config,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		sessions: make(map[*Session]struct{}),
	}
}

// ServeWS upgrades the request and runs the session until the connection
// closes. Sessions start unbound; the identity arrives with the join
// event.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	session := newSession(s, conn)
	s.addSession(session)
	log.Info().Str("session", session.id).Str("remote", r.RemoteAddr).Msg("client connected")

	go session.writePump()
	session.readPump()
}

func (s *Server) addSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session] = struct{}{}
}

func (s *Server) removeSession(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, session)
}

// broadcastStatus pushes a presence transition to the user's accepted
// friends only, never to the whole connection set.
func (s *Server) broadcastStatus(userID, status string) {
	s.broadcastToFriends(userID, protocol.UserStatusUpdate(userID, status))
}

func (s *Server) broadcastTyping(userID string) {
	s.broadcastToFriends(userID, protocol.UserTyping(userID))
}

func (s *Server) broadcastToFriends(userID string, event protocol.Event) {
	friends, err := s.chat.AcceptedFriendIDs(userID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("friend lookup for broadcast failed")
		return
	}

	for _, friendID := range friends {
		for _, h := range s.registry.HandlesFor(friendID) {
			h.Send(event)
		}
	}
}

// Shutdown closes every live session. Each teardown unbinds its handle
// and releases the transport.
func (s *Server) Shutdown() {
	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.sessions))
	for session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	for _, session := range sessions {
		session.teardown()
	}
}

// Stats returns server statistics as a formatted string for the control
// socket.
func (s *Server) Stats() string {
	s.mu.RLock()
	connections := len(s.sessions)
	s.mu.RUnlock()

	users := s.registry.Online()
	return "connections=" + strconv.Itoa(connections) + ",users=" + strings.Join(users, ";")
}
