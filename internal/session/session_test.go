package session

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kaizau/pinyin-ktv-replit/internal/lyrics"
)

type nopConverter struct{}

func (nopConverter) Convert(string) string { return "" }

// gateConverter blocks conversion of lines prefixed "slow" until
// released, letting tests hold a parse in flight deterministically.
type gateConverter struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gateConverter) Convert(text string) string {
	if strings.HasPrefix(text, "slow") {
		g.once.Do(func() { close(g.entered) })
		<-g.release
	}
	return ""
}

func newTestSession(conv lyrics.Converter) *Session {
	parser := lyrics.NewParser(conv, nil, 0)
	return newSession("test-session", "dQw4w9WgXcQ", "title", "author", parser, time.Hour)
}

func TestSeekToOptimisticUpdate(t *testing.T) {
	s := newTestSession(nopConverter{})
	defer s.Close()
	s.SetTrack(&lyrics.TrackSelection{SyncedLyrics: "[00:01.00]a\n[01:00.00]b"})

	// Seek while paused and without any player confirmation: the local
	// state must reflect the intent immediately.
	s.SeekTo(42.0)

	state := s.State()
	if state.CurrentTime != 42.0 {
		t.Errorf("CurrentTime = %v, want 42.0", state.CurrentTime)
	}
	if state.ActiveLine != 0 {
		t.Errorf("ActiveLine = %d, want 0", state.ActiveLine)
	}

	snap := s.Snapshot()
	if snap.PendingSeek == nil || *snap.PendingSeek != 42.0 {
		t.Errorf("PendingSeek = %v, want 42.0", snap.PendingSeek)
	}
	// The command is one-shot.
	if again := s.Snapshot(); again.PendingSeek != nil {
		t.Error("PendingSeek should be consumed by the first snapshot")
	}
}

func TestSeekThenEstimationAdvances(t *testing.T) {
	s := newTestSession(nopConverter{})
	defer s.Close()
	s.SetTrack(&lyrics.TrackSelection{SyncedLyrics: "[00:01.00]a"})

	// Non-queryable regime: playing with no time samples at all.
	s.HandleEvent(PlayerEvent{Type: EventPlaying})
	s.SeekTo(42.0)
	s.HandleEvent(PlayerEvent{Type: EventPaused})

	if got := s.State().CurrentTime; got < 42.0 {
		t.Errorf("estimated time = %v, want >= 42.0 after seek", got)
	}
}

func TestStaleParseDiscarded(t *testing.T) {
	gate := &gateConverter{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newTestSession(gate)
	defer s.Close()

	stale := &lyrics.TrackSelection{ID: 1, SyncedLyrics: "[00:01.00]slow line"}
	fresh := &lyrics.TrackSelection{ID: 2, SyncedLyrics: "[00:01.00]fast line"}

	done := make(chan bool, 1)
	go func() {
		done <- s.SetTrack(stale)
	}()

	// Wait until the stale parse is in flight, then supersede it.
	<-gate.entered
	if !s.SetTrack(fresh) {
		t.Fatal("fresh selection should install")
	}
	close(gate.release)

	if installed := <-done; installed {
		t.Error("stale selection reported as installed")
	}

	snap := s.Snapshot()
	if snap.Track == nil || snap.Track.ID != 2 {
		t.Fatalf("installed track = %+v, want the fresh selection", snap.Track)
	}
	if len(snap.Lines) != 1 || snap.Lines[0].Text != "fast line" {
		t.Errorf("lines = %+v, want the fresh track's lines", snap.Lines)
	}
}

func TestTrackChangeResetsState(t *testing.T) {
	s := newTestSession(nopConverter{})
	defer s.Close()

	s.SetTrack(&lyrics.TrackSelection{ID: 1, SyncedLyrics: "[00:01.00]a"})
	s.HandleEvent(PlayerEvent{Type: EventPlaying, Time: 10, HasTime: true})

	s.SetTrack(&lyrics.TrackSelection{ID: 2, SyncedLyrics: "[00:05.00]b"})

	state := s.State()
	if state.CurrentTime != 0 {
		t.Errorf("CurrentTime after track change = %v, want 0", state.CurrentTime)
	}
	if state.ActiveLine != NoActiveLine {
		t.Errorf("ActiveLine after track change = %d, want none", state.ActiveLine)
	}
	if s.Snapshot().Playing {
		t.Error("tracking should be torn down on track change")
	}
}

func TestListenerFiresOnChangeOnly(t *testing.T) {
	s := newTestSession(nopConverter{})
	defer s.Close()
	s.SetTrack(&lyrics.TrackSelection{SyncedLyrics: "[00:01.00]a\n[00:05.00]b"})

	var mu sync.Mutex
	var calls []int
	s.SetListener(func(state PlaybackState) {
		mu.Lock()
		calls = append(calls, state.ActiveLine)
		mu.Unlock()
	})

	// Repeated samples inside the same line must not re-signal.
	s.HandleEvent(PlayerEvent{Type: EventTime, Time: 1.5})
	s.HandleEvent(PlayerEvent{Type: EventTime, Time: 2.0})
	s.HandleEvent(PlayerEvent{Type: EventTime, Time: 3.0})
	s.HandleEvent(PlayerEvent{Type: EventTime, Time: 5.5})

	mu.Lock()
	defer mu.Unlock()
	want := []int{0, 1}
	if len(calls) != len(want) {
		t.Fatalf("listener calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %d, want %d", i, calls[i], want[i])
		}
	}
}

func TestInstrumentalSnapshot(t *testing.T) {
	s := newTestSession(nopConverter{})
	defer s.Close()
	s.SetTrack(&lyrics.TrackSelection{ID: 3, Instrumental: true})

	snap := s.Snapshot()
	if !snap.Instrumental {
		t.Error("snapshot should flag instrumental state")
	}
	if len(snap.Lines) != 0 {
		t.Errorf("instrumental track should have no lines, got %d", len(snap.Lines))
	}
}

func TestManagerRestart(t *testing.T) {
	parser := lyrics.NewParser(nopConverter{}, nil, 0)
	m := NewManager(parser, time.Hour, time.Hour)

	if err := m.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Start(); err == nil {
		t.Error("second Start on a running manager should fail")
	}
	m.Stop()

	if err := m.Start(); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	// Must not panic on a stop channel reused from the first run.
	m.Stop()
}

func TestManagerLifecycle(t *testing.T) {
	parser := lyrics.NewParser(nopConverter{}, nil, 0)
	m := NewManager(parser, time.Hour, time.Hour)

	s := m.Create("dQw4w9WgXcQ", "title", "author")
	if s.ID == "" {
		t.Fatal("expected generated session id")
	}

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get(%s) = %v, %v", s.ID, got, err)
	}

	m.Delete(s.ID)
	if _, err := m.Get(s.ID); err != ErrNotFound {
		t.Errorf("Get after Delete: err = %v, want ErrNotFound", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}
