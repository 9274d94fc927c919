// Package pinyin converts Han-script text into tone-marked pinyin
// annotations for display above lyric lines.
package pinyin

import (
	"strings"
	"unicode"

	"github.com/liuzl/gocc"
	gopinyin "github.com/mozillazg/go-pinyin"
	"github.com/rs/zerolog/log"
)

var logger = log.With().Str("component", "pinyin").Logger()

// Converter turns mixed Han/Latin text into a space-joined pinyin
// annotation. It is a pure function of its input: same text in, same
// annotation out, and it never returns an error to the caller.
type Converter struct {
	args gopinyin.Args
	cc   *gocc.OpenCC // 繁体转简体; nil when the dictionary failed to load
}

// NewConverter builds a Converter. The traditional→simplified step is
// best-effort: lyrics databases mix scripts, and the pinyin lexicon is
// keyed on simplified forms, but a missing OpenCC dictionary only costs
// annotation quality, never startup.
func NewConverter() *Converter {
	args := gopinyin.NewArgs()
	args.Style = gopinyin.Tone
	// Keep unknown runes instead of dropping them so rare characters
	// still occupy a slot in the annotation.
	args.Fallback = func(r rune, _ gopinyin.Args) []string {
		return []string{string(r)}
	}

	cc, err := gocc.New("t2s")
	if err != nil {
		logger.Warn().Err(err).Msg("opencc t2s dictionary unavailable, skipping simplification")
		cc = nil
	}

	return &Converter{args: args, cc: cc}
}

// Convert returns the pinyin annotation for text, or the empty string
// when the text contains no Han characters. Non-Han runs (backing
// vocals, interjections, numbers) are carried through verbatim between
// the converted syllables.
func (c *Converter) Convert(text string) (annotation string) {
	if !ContainsHan(text) {
		return ""
	}

	// The lexicon must behave as an opaque capability that cannot take
	// the line down: if it misbehaves, the original text stands in for
	// the annotation.
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("text", text).Msg("pinyin conversion failed")
			annotation = text
		}
	}()

	text = c.simplify(text)

	var tokens []string
	for _, run := range splitRuns(text) {
		if run.han {
			for _, readings := range gopinyin.Pinyin(run.text, c.args) {
				if len(readings) > 0 {
					tokens = append(tokens, readings[0])
				}
			}
			continue
		}
		if t := strings.TrimSpace(run.text); t != "" {
			tokens = append(tokens, t)
		}
	}
	return strings.Join(tokens, " ")
}

// simplify maps traditional characters to simplified ones. Failures
// yield the original text unchanged.
func (c *Converter) simplify(text string) string {
	if c.cc == nil {
		return text
	}
	out, err := c.cc.Convert(text)
	if err != nil {
		logger.Warn().Err(err).Str("text", text).Msg("opencc conversion failed")
		return text
	}
	return out
}

// ContainsHan reports whether any rune in s belongs to the Han script.
// This is a range membership test, not language detection: a single
// 汉字 among Latin text counts.
func ContainsHan(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

type runSegment struct {
	text string
	han  bool
}

// splitRuns splits text into maximal runs of Han and non-Han runes,
// preserving input order.
func splitRuns(text string) []runSegment {
	var runs []runSegment
	var b strings.Builder
	var current bool
	started := false

	flush := func() {
		if b.Len() > 0 {
			runs = append(runs, runSegment{text: b.String(), han: current})
			b.Reset()
		}
	}

	for _, r := range text {
		han := unicode.Is(unicode.Han, r)
		if started && han != current {
			flush()
		}
		current = han
		started = true
		b.WriteRune(r)
	}
	flush()
	return runs
}
