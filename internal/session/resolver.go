package session

import (
	"github.com/kaizau/pinyin-ktv-replit/internal/lyrics"
)

// Resolver maps a playback time to the active line index over one
// immutable line snapshot. Lines are time-ordered with half-open
// [Start, End) intervals, so the last line whose Start is at or before
// the time is the unique candidate.
//
// The common case is monotonic playback, handled by a cursor that only
// advances; a backward jump (seek) falls back to a binary search over
// the whole sequence.
type Resolver struct {
	lines  []lyrics.Line
	cursor int
}

// NewResolver builds a resolver over lines. The slice is owned by the
// resolver for the duration of one track's playback and never mutated.
func NewResolver(lines []lyrics.Line) *Resolver {
	return &Resolver{lines: lines, cursor: NoActiveLine}
}

// Resolve returns the index of the line active at time t, or
// NoActiveLine. Start is inclusive, End exclusive: t equal to a line's
// End selects the next line.
func (r *Resolver) Resolve(t float64) int {
	if len(r.lines) == 0 {
		return NoActiveLine
	}

	if r.cursor != NoActiveLine && t < r.lines[r.cursor].Start {
		// Time moved backward; the forward cursor is useless.
		r.cursor = r.search(t)
		return r.cursor
	}

	i := r.cursor
	for i+1 < len(r.lines) && r.lines[i+1].Start <= t {
		i++
	}
	if i == NoActiveLine || t < r.lines[i].Start || t >= r.lines[i].End {
		r.cursor = NoActiveLine
		return NoActiveLine
	}
	r.cursor = i
	return i
}

// search finds the last line with Start <= t, then validates the
// interval. Binary search keeps seeks cheap even for long tracks.
func (r *Resolver) search(t float64) int {
	left, right := 0, len(r.lines)-1
	found := NoActiveLine
	for left <= right {
		mid := (left + right) / 2
		if r.lines[mid].Start <= t {
			found = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}
	if found == NoActiveLine || t >= r.lines[found].End {
		return NoActiveLine
	}
	return found
}

// Len returns the number of lines in the snapshot.
func (r *Resolver) Len() int {
	return len(r.lines)
}
