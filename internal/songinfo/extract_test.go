package songinfo

import (
	"errors"
	"testing"
)

type fakeAI struct {
	reply string
	err   error
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) HandleText(string) (string, error) {
	return f.reply, f.err
}

func TestHeuristicArtistTitle(t *testing.T) {
	e := NewExtractor(nil)

	info := e.Extract("周杰倫 - 晴天【官方MV】", "Jay Chou")
	if info.Artist != "周杰倫" || info.Title != "晴天" {
		t.Errorf("Extract = %+v, want artist 周杰倫 title 晴天", info)
	}
}

func TestHeuristicStripsDecorations(t *testing.T) {
	e := NewExtractor(nil)

	info := e.Extract("鄧紫棋【光年之外 Light Years Away】(Official Lyric Video)", "GEM")
	if info.Title == "" {
		t.Fatal("want non-empty title")
	}
	if info.Artist != "GEM" {
		t.Errorf("artist = %q, want channel fallback GEM", info.Artist)
	}
}

func TestHeuristicChannelFallback(t *testing.T) {
	e := NewExtractor(nil)

	info := e.Extract("晴天", "周杰伦")
	if info.Title != "晴天" || info.Artist != "周杰伦" {
		t.Errorf("Extract = %+v", info)
	}
}

func TestAIPassWins(t *testing.T) {
	e := NewExtractor(&fakeAI{reply: `{"is_song": true, "title": "晴天", "artist": "周杰伦"}`})

	info := e.Extract("some messy upload title", "channel")
	if info.Title != "晴天" || info.Artist != "周杰伦" {
		t.Errorf("Extract = %+v, want AI result", info)
	}
}

func TestAIFailureFallsBack(t *testing.T) {
	e := NewExtractor(&fakeAI{err: errors.New("quota")})

	info := e.Extract("周杰倫 - 晴天", "")
	if info.Artist != "周杰倫" || info.Title != "晴天" {
		t.Errorf("Extract = %+v, want heuristic result", info)
	}
}

func TestAINotASong(t *testing.T) {
	e := NewExtractor(&fakeAI{reply: `{"is_song": false}`})

	info := e.Extract("新聞直播 - 晚間報導", "news")
	if info.Title == "" {
		t.Error("heuristic fallback should still produce a query")
	}
}

func TestAIGarbageResponse(t *testing.T) {
	e := NewExtractor(&fakeAI{reply: "```json\nnot json"})

	info := e.Extract("周杰倫 - 晴天", "")
	if info.Title != "晴天" {
		t.Errorf("Extract = %+v, want heuristic result", info)
	}
}
