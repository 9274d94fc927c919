package session

import (
	"math"
	"testing"

	"github.com/kaizau/pinyin-ktv-replit/internal/lyrics"
)

func timedLines(starts ...float64) []lyrics.Line {
	lines := make([]lyrics.Line, len(starts))
	for i, s := range starts {
		lines[i] = lyrics.Line{Start: s, End: math.Inf(1)}
		if i > 0 {
			lines[i-1].End = s
		}
	}
	return lines
}

func TestResolveScenario(t *testing.T) {
	// "[00:01.00]你好\n[00:03.50]世界"
	cases := []struct {
		time float64
		want int
	}{
		{2.0, 0},
		{3.5, 1},
		{0.5, NoActiveLine},
	}
	for _, tc := range cases {
		r := NewResolver(timedLines(1.0, 3.5))
		if got := r.Resolve(tc.time); got != tc.want {
			t.Errorf("Resolve(%v) = %d, want %d", tc.time, got, tc.want)
		}
	}
}

func TestResolveBoundaries(t *testing.T) {
	r := NewResolver(timedLines(1.0, 3.5, 7.0))

	// Inclusive lower bound: time exactly at Start selects that line.
	if got := r.Resolve(1.0); got != 0 {
		t.Errorf("Resolve(1.0) = %d, want 0", got)
	}
	// Exclusive upper bound: time exactly at End selects the next line.
	if got := r.Resolve(3.5); got != 1 {
		t.Errorf("Resolve(3.5) = %d, want 1", got)
	}
	// Last line stays active indefinitely.
	if got := r.Resolve(9999); got != 2 {
		t.Errorf("Resolve(9999) = %d, want 2", got)
	}
}

func TestResolveEmptySequence(t *testing.T) {
	r := NewResolver(nil)
	if got := r.Resolve(5.0); got != NoActiveLine {
		t.Errorf("Resolve on empty sequence = %d, want NoActiveLine", got)
	}
}

func TestResolveMonotonicAdvance(t *testing.T) {
	r := NewResolver(timedLines(0, 2, 4, 6, 8))

	want := []int{0, 0, 1, 2, 3, 4, 4}
	times := []float64{0, 1.9, 2, 5, 6.5, 8, 100}
	for i, tm := range times {
		if got := r.Resolve(tm); got != want[i] {
			t.Errorf("Resolve(%v) = %d, want %d", tm, got, want[i])
		}
	}
}

func TestResolveBackwardSeek(t *testing.T) {
	r := NewResolver(timedLines(0, 2, 4, 6, 8))

	if got := r.Resolve(7.0); got != 3 {
		t.Fatalf("Resolve(7.0) = %d, want 3", got)
	}
	// Seek backward: the forward cursor must not pin the result.
	if got := r.Resolve(1.0); got != 0 {
		t.Errorf("Resolve(1.0) after backward seek = %d, want 0", got)
	}
	// And back before the first line entirely.
	r.Resolve(7.0)
	if got := r.Resolve(-1); got != NoActiveLine {
		t.Errorf("Resolve(-1) = %d, want NoActiveLine", got)
	}
}

func TestResolvePastFiniteEnd(t *testing.T) {
	// Plain-lyrics windows have a finite final End; beyond it no line
	// is active.
	lines := []lyrics.Line{
		{Start: 0, End: 3},
		{Start: 3, End: 6},
	}
	r := NewResolver(lines)

	if got := r.Resolve(5.0); got != 1 {
		t.Fatalf("Resolve(5.0) = %d, want 1", got)
	}
	if got := r.Resolve(6.0); got != NoActiveLine {
		t.Errorf("Resolve(6.0) = %d, want NoActiveLine past final window", got)
	}
	// Recovers when time returns inside a window.
	if got := r.Resolve(1.0); got != 0 {
		t.Errorf("Resolve(1.0) = %d, want 0", got)
	}
}
