// Package lyrics parses lyrics payloads into time-bounded, annotated
// lines ready for playback synchronization.
package lyrics

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "lyrics").Logger()

// Line is one display line of a track. Start is inclusive, End is
// exclusive; the final line of a synced sequence has End = +Inf, so the
// last playable line stays active once reached.
type Line struct {
	Text        string  `json:"text"`
	Annotation  string  `json:"annotation"`
	Translation string  `json:"translation,omitempty"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
}

// MarshalJSON emits an unbounded End as null: +Inf has no JSON
// representation, and a null end reads naturally as "active until the
// track changes".
func (l Line) MarshalJSON() ([]byte, error) {
	type lineJSON struct {
		Text        string   `json:"text"`
		Annotation  string   `json:"annotation"`
		Translation string   `json:"translation,omitempty"`
		Start       float64  `json:"start"`
		End         *float64 `json:"end"`
	}
	out := lineJSON{
		Text:        l.Text,
		Annotation:  l.Annotation,
		Translation: l.Translation,
		Start:       l.Start,
	}
	if !math.IsInf(l.End, 1) {
		out.End = &l.End
	}
	return json.Marshal(out)
}

// Converter produces the pronunciation annotation for a line. It must
// be deterministic and never fail; an empty result means the line has
// no annotatable content.
type Converter interface {
	Convert(text string) string
}

// Translator optionally produces a translation for a line. An empty
// result means no translation is available; failures are expressed the
// same way.
type Translator interface {
	Translate(text string) string
}

// Synced lyrics tags are fixed-width: [MM:SS.hh] with two digits each.
// Anything that does not match drops the whole line.
var timeTag = regexp.MustCompile(`^\[(\d{2}):(\d{2})\.(\d{2})\](.*)$`)

// DefaultPlainWindow is the synthetic per-line duration assigned to
// untimed lyrics. Three seconds per line is an approximation, not real
// synchronization, but it keeps the view moving.
const DefaultPlainWindow = 3.0

// Parser converts a TrackSelection into an ordered line sequence.
type Parser struct {
	conv   Converter
	tr     Translator // nil disables translations
	window float64
}

// NewParser builds a Parser. tr may be nil. A non-positive window falls
// back to DefaultPlainWindow.
func NewParser(conv Converter, tr Translator, window float64) *Parser {
	if window <= 0 {
		window = DefaultPlainWindow
	}
	return &Parser{conv: conv, tr: tr, window: window}
}

// Parse builds the line sequence for track. Synced lyrics win over
// plain text; an instrumental track (or one with no text at all) yields
// an empty sequence, which the caller renders as an instrumental state.
// Output order always matches input line order.
func (p *Parser) Parse(track *TrackSelection) []Line {
	var lines []Line
	switch {
	case track.HasSyncedLyrics():
		lines = p.parseSynced(track.SyncedLyrics)
	case track.HasPlainLyrics():
		lines = p.parsePlain(track.PlainLyrics)
	default:
		return nil
	}

	for i := range lines {
		lines[i].Annotation = p.conv.Convert(lines[i].Text)
		if p.tr != nil && lines[i].Annotation != "" {
			lines[i].Translation = p.tr.Translate(lines[i].Text)
		}
	}
	return lines
}

// parseSynced parses a line-timed payload. Malformed lines are dropped
// silently: one bad tag must not abort the rest of the parse. Each
// line's End is chained to the next parsed line's Start; the last line
// is unbounded.
func (p *Parser) parseSynced(raw string) []Line {
	var out []Line
	dropped := 0
	for _, rawLine := range strings.Split(raw, "\n") {
		rawLine = strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(rawLine) == "" {
			continue
		}
		m := timeTag.FindStringSubmatch(rawLine)
		if m == nil {
			dropped++
			continue
		}
		min, _ := strconv.Atoi(m[1])
		sec, _ := strconv.Atoi(m[2])
		hund, _ := strconv.Atoi(m[3])
		out = append(out, Line{
			Text:  strings.TrimSpace(m[4]),
			Start: float64(min*60+sec) + float64(hund)/100,
			End:   math.Inf(1),
		})
	}
	for i := 0; i+1 < len(out); i++ {
		out[i].End = out[i+1].Start
	}
	if dropped > 0 {
		logger.Debug().Int("dropped", dropped).Int("kept", len(out)).Msg("dropped untagged lyric lines")
	}
	return out
}

// parsePlain assigns uniform synthetic windows to untimed text: line i
// spans [i*window, (i+1)*window).
func (p *Parser) parsePlain(raw string) []Line {
	var out []Line
	for _, rawLine := range strings.Split(raw, "\n") {
		text := strings.TrimSpace(rawLine)
		if text == "" {
			continue
		}
		i := float64(len(out))
		out = append(out, Line{
			Text:  text,
			Start: i * p.window,
			End:   (i + 1) * p.window,
		})
	}
	return out
}
