package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kaizau/pinyin-ktv-replit/internal/lyrics"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// DefaultIdleTTL is how long an untouched session survives before the
// janitor reclaims it.
const DefaultIdleTTL = time.Hour

// Manager is the uuid-keyed session registry. Idle sessions are swept
// periodically so abandoned browser tabs do not leak tick loops.
type Manager struct {
	parser  *Parser
	tick    time.Duration
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	ticker    *time.Ticker
	stopChan  chan struct{}
	isRunning bool
	runMutex  sync.Mutex
}

// Parser is the session manager's view of the lyrics parser.
type Parser = lyrics.Parser

// NewManager builds a Manager. Non-positive durations fall back to the
// package defaults.
func NewManager(parser *Parser, tick, idleTTL time.Duration) *Manager {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Manager{
		parser:   parser,
		tick:     tick,
		idleTTL:  idleTTL,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session for a video and returns it.
func (m *Manager) Create(videoID, title, author string) *Session {
	s := newSession(uuid.New().String(), videoID, title, author, m.parser, m.tick)

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()

	log.Info().
		Str("component", "session-manager").
		Str("session_id", s.ID).
		Str("video_id", videoID).
		Int("active_sessions", count).
		Msg("session created")
	return s
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete closes and removes a session. Unknown ids are a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Start launches the idle sweep loop. Calling Start on a running
// manager is an error; a stopped manager may be started again.
func (m *Manager) Start() error {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	if m.isRunning {
		return errors.New("session manager is already running")
	}
	// Fresh channel per run: the previous Stop closed the old one, and
	// a loop reading a closed channel would exit immediately.
	m.ticker = time.NewTicker(m.idleTTL / 4)
	m.stopChan = make(chan struct{})
	m.isRunning = true
	go m.sweepLoop(m.ticker, m.stopChan)
	return nil
}

// Stop halts the sweep loop and closes every live session.
func (m *Manager) Stop() {
	m.runMutex.Lock()
	defer m.runMutex.Unlock()
	if !m.isRunning {
		return
	}
	close(m.stopChan)
	m.ticker.Stop()
	m.isRunning = false

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) sweepLoop(ticker *time.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-stop:
			return
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		log.Info().
			Str("component", "session-manager").
			Str("session_id", s.ID).
			Msg("idle session reclaimed")
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
