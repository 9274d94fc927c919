// Package songinfo turns noisy video titles into track/artist query
// terms. A heuristic pass strips upload decorations; when a completion
// client is configured its answer takes precedence.
package songinfo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kaizau/pinyin-ktv-replit/pkg/ai"
)

// Info is the extracted search query for a media title.
type Info struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	IsSong bool   `json:"is_song"`
}

func formatQuerySong(title string) string {
	return fmt.Sprintf(`请精确地按照以下JSON格式提取歌曲信息: {"is_song": true, "title": "歌曲标题", "artist": "演唱者"}。 输入是一个视频标题，如果标题中包含歌曲信息，请返回符合格式的JSON；否则，返回{"is_song": false}。 请注意，"title" 和 "artist" 必须准确，否则将被视为错误，切记不要任何markdown格式，并将繁体中文转换为简体。 视频标题是：%s`, title)
}

var (
	// Bracketed segments are almost always upload decoration, not song
	// metadata: 【高清MV】, (Official Video), [Lyric Video].
	bracketed = regexp.MustCompile(`【[^】]*】|\[[^\]]*\]|\([^)]*\)|（[^）]*）`)

	noiseWords = []string{
		"Official", "official", "OFFICIAL",
		"MV", "mv", "M/V",
		"Music Video", "Lyric Video", "Lyrics", "lyric", "lyrics",
		"HD", "4K", "1080p",
		"官方", "完整版", "高清", "歌詞版", "歌词版", "歌詞", "歌词",
		"動態歌詞", "动态歌词", "現場版", "现场版",
	}

	separators = []string{" - ", " – ", " — ", "|", "/", "－"}
)

// Extractor resolves video titles into lyric-search terms.
type Extractor struct {
	client ai.Client
	logger zerolog.Logger
}

// NewExtractor builds an Extractor. A nil client disables the AI pass
// and leaves only the heuristic.
func NewExtractor(client ai.Client) *Extractor {
	return &Extractor{
		client: client,
		logger: log.With().Str("component", "songinfo").Logger(),
	}
}

// Extract returns the best track/artist guess for a video title. The
// author name (channel) is a hint for the artist when the title itself
// carries none. Extraction never fails: the worst case is the raw
// title with no artist.
func (e *Extractor) Extract(title, author string) Info {
	if e.client != nil {
		if info, ok := e.fromAI(title); ok {
			return info
		}
	}
	return e.heuristic(title, author)
}

func (e *Extractor) fromAI(title string) (Info, bool) {
	raw, err := e.client.HandleText(formatQuerySong(title))
	if err != nil {
		e.logger.Warn().Err(err).Str("provider", e.client.Name()).Msg("song info query failed, using heuristic")
		return Info{}, false
	}

	var info Info
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &info); err != nil {
		e.logger.Warn().Err(err).Str("raw", raw).Msg("unparseable song info response")
		return Info{}, false
	}
	if !info.IsSong || info.Title == "" {
		return Info{}, false
	}
	return info, true
}

func (e *Extractor) heuristic(title, author string) Info {
	cleaned := bracketed.ReplaceAllString(title, " ")
	for _, w := range noiseWords {
		cleaned = strings.ReplaceAll(cleaned, w, " ")
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		cleaned = strings.TrimSpace(title)
	}

	for _, sep := range separators {
		parts := strings.SplitN(cleaned, sep, 2)
		if len(parts) != 2 {
			continue
		}
		left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if left == "" || right == "" {
			continue
		}
		// "Artist - Title" is the dominant order on music channels.
		return Info{Title: right, Artist: left, IsSong: true}
	}

	return Info{Title: cleaned, Artist: strings.TrimSpace(author), IsSong: true}
}
