package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kaizau/pinyin-ktv-replit/internal/lyrics"
)

// DefaultTickInterval paces the resolve loop while playback is active.
const DefaultTickInterval = 150 * time.Millisecond

// Listener is notified whenever the active line changes. It is called
// outside the session lock; state is a copy.
type Listener func(state PlaybackState)

// Session owns the playback pipeline for one viewer and one video:
// the selected track, its immutable parsed line snapshot, the tracker,
// and the resolver. All mutation of PlaybackState happens under one
// lock so a time-update-and-resolve cycle is a single atomic step.
type Session struct {
	ID      string
	VideoID string
	Title   string
	Author  string

	parser *lyrics.Parser
	tick   time.Duration

	mu          sync.Mutex
	track       *lyrics.TrackSelection
	lines       []lyrics.Line
	state       PlaybackState
	tracker     *Tracker
	resolver    *Resolver
	pendingSeek *float64
	generation  uint64
	cancel      context.CancelFunc
	listener    Listener
	lastTouch   time.Time

	logger zerolog.Logger
}

func newSession(id, videoID, title, author string, parser *lyrics.Parser, tick time.Duration) *Session {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Session{
		ID:        id,
		VideoID:   videoID,
		Title:     title,
		Author:    author,
		parser:    parser,
		tick:      tick,
		tracker:   NewTracker(),
		state:     PlaybackState{ActiveLine: NoActiveLine},
		lastTouch: time.Now(),
		logger:    log.With().Str("component", "session").Str("session_id", id).Logger(),
	}
}

// SetListener registers the active-line change callback.
func (s *Session) SetListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// SetTrack parses the selection and installs the resulting line
// sequence as one atomic replacement. Selections race under
// last-selection-wins: if a newer SetTrack started while this parse
// was in flight, the stale result is discarded on arrival, never
// merged. Returns false for a discarded selection.
func (s *Session) SetTrack(track *lyrics.TrackSelection) bool {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	// Parsing and per-line conversion can be slow; keep it off the lock
	// so player events stay responsive.
	lines := s.parser.Parse(track)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug().Int("track_id", track.ID).Msg("discarding stale parse result")
		return false
	}

	// Tear down the previous tick loop before installing the new
	// snapshot, otherwise two loops would race on CurrentTime.
	s.stopLoopLocked()
	s.tracker.Reset()
	s.track = track
	s.lines = lines
	s.resolver = NewResolver(lines)
	s.state = PlaybackState{ActiveLine: NoActiveLine}
	s.pendingSeek = nil

	s.logger.Info().
		Int("track_id", track.ID).
		Str("track", track.TrackName).
		Str("artist", track.ArtistName).
		Int("lines", len(lines)).
		Bool("instrumental", track.Instrumental).
		Msg("track installed")
	return true
}

// HandleEvent consumes a notification from the external player.
func (s *Session) HandleEvent(ev PlayerEvent) {
	s.mu.Lock()
	s.lastTouch = time.Now()

	switch ev.Type {
	case EventPlaying:
		if ev.HasTime {
			s.tracker.Confirm(ev.Time)
		}
		s.tracker.Start()
		s.startLoopLocked()
	case EventPaused, EventEnded:
		if ev.HasTime {
			s.tracker.Confirm(ev.Time)
		}
		s.tracker.Stop()
		s.stopLoopLocked()
	case EventTime:
		s.tracker.Confirm(ev.Time)
	default:
		s.logger.Warn().Str("type", string(ev.Type)).Msg("unknown player event")
		s.mu.Unlock()
		return
	}

	changed, state, l := s.stepLocked()
	s.mu.Unlock()
	if changed && l != nil {
		l(state)
	}
}

// SeekTo handles a user line-selection. The local state updates
// optimistically before the player confirms anything: the lyrics view
// reflects the intent immediately, and if the control channel is down
// the view is still right even though the video did not move.
func (s *Session) SeekTo(target float64) {
	if target < 0 {
		target = 0
	}
	s.mu.Lock()
	s.lastTouch = time.Now()
	s.state.CurrentTime = target
	t := target
	s.pendingSeek = &t
	s.tracker.Seek(target)
	changed, state, l := s.stepLocked()
	s.mu.Unlock()
	if changed && l != nil {
		l(state)
	}
}

// stepLocked performs one time-update-and-resolve cycle. Caller holds
// the lock. Reports whether the active line changed so the caller can
// notify without re-signaling on unchanged indexes.
func (s *Session) stepLocked() (changed bool, state PlaybackState, l Listener) {
	s.state.CurrentTime = s.tracker.Now()
	idx := NoActiveLine
	if s.resolver != nil {
		idx = s.resolver.Resolve(s.state.CurrentTime)
	}
	changed = idx != s.state.ActiveLine
	s.state.ActiveLine = idx
	return changed, s.state, s.listener
}

// startLoopLocked launches the resolve loop. Idempotent: a running
// loop is left alone, so repeated play events never stack tickers.
func (s *Session) startLoopLocked() {
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)
}

func (s *Session) stopLoopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
}

func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			changed, state, l := s.stepLocked()
			s.mu.Unlock()
			if changed && l != nil {
				l(state)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Snapshot is the poll response for the presentation layer.
type Snapshot struct {
	ID           string                 `json:"id"`
	VideoID      string                 `json:"videoId"`
	Title        string                 `json:"title"`
	Author       string                 `json:"author"`
	Track        *lyrics.TrackSelection `json:"track,omitempty"`
	Lines        []lyrics.Line          `json:"lines"`
	State        PlaybackState          `json:"state"`
	Playing      bool                   `json:"playing"`
	Instrumental bool                   `json:"instrumental"`
	// PendingSeek is a one-shot command for the embedded player; it is
	// consumed by the snapshot that carries it.
	PendingSeek *float64 `json:"pendingSeek,omitempty"`
}

// Snapshot returns the current session view and consumes any pending
// seek command.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouch = time.Now()

	snap := Snapshot{
		ID:          s.ID,
		VideoID:     s.VideoID,
		Title:       s.Title,
		Author:      s.Author,
		Track:       s.track,
		Lines:       s.lines,
		State:       s.state,
		Playing:     s.tracker.Tracking(),
		PendingSeek: s.pendingSeek,
	}
	if s.track != nil {
		snap.Instrumental = s.track.Instrumental && len(s.lines) == 0
	}
	s.pendingSeek = nil
	return snap
}

// State returns a copy of the playback state.
func (s *Session) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLoopLocked()
	s.tracker.Stop()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouch
}
