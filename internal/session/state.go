// Package session hosts karaoke sessions: per-viewer playback state,
// time tracking against the embedded player, and active-line
// resolution over a parsed lyric sequence.
package session

// NoActiveLine is the sentinel for "no lyric line matches the current
// time" (before the first line, or no sequence loaded).
const NoActiveLine = -1

// PlaybackState is the shared state both asynchronous sources funnel
// into: the tracker writes CurrentTime, the resolver writes ActiveLine.
// Each update-and-resolve cycle happens as one step under the session
// lock.
type PlaybackState struct {
	CurrentTime float64 `json:"currentTime"`
	ActiveLine  int     `json:"activeLine"`
}

// EventType classifies notifications from the embedded player.
type EventType string

const (
	// EventPlaying reports that playback started or resumed.
	EventPlaying EventType = "playing"
	// EventPaused reports that playback paused or stopped.
	EventPaused EventType = "paused"
	// EventEnded reports that the video finished.
	EventEnded EventType = "ended"
	// EventTime carries a confirmed playback time sample. Players that
	// cannot be queried for time simply never send these.
	EventTime EventType = "time"
)

// PlayerEvent is one notification from the external player.
type PlayerEvent struct {
	Type EventType `json:"type"`
	// Time is the player-reported position in seconds. Valid for
	// EventTime always; for the other events only when HasTime is set.
	Time    float64 `json:"time"`
	HasTime bool    `json:"hasTime"`
}
