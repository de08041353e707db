package relay

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/camlink/camlink-go/internal/core/domain"
)

// Session is one producer connection.
type Session struct {
	ID     string
	Remote string
	Since  time.Time

	conn *websocket.Conn

	mu     sync.Mutex
	state  domain.SessionState
	frames int
	bytes  int
}

func newSession(id, remote string) *Session {
	return &Session{
		ID:     id,
		Remote: remote,
		Since:  time.Now(),
		state:  domain.SessionUpgrading,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// transition moves to next and reports whether the move was legal.
func (s *Session) transition(next domain.SessionState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.CanTransitionTo(next) {
		return false
	}
	s.state = next
	return true
}

func (s *Session) countFrame(n int) {
	s.mu.Lock()
	s.frames++
	s.bytes += n
	s.mu.Unlock()
}

// Stats returns the number of frames and payload bytes relayed so far.
func (s *Session) Stats() (frames, bytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames, s.bytes
}
