// Package youtube resolves video metadata through the public oEmbed
// endpoint. No API key is required; the endpoint only serves title and
// author, which is all the lyrics search needs.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned for unknown or private videos.
var ErrNotFound = errors.New("video not found")

// ErrInvalidURL is returned when no video id can be extracted from the
// pasted URL.
var ErrInvalidURL = errors.New("not a recognizable youtube url")

var logger = log.With().Str("component", "youtube").Logger()

// Video is the metadata subset consumed by the rest of the system.
type Video struct {
	VideoID    string `json:"videoId"`
	Title      string `json:"title"`
	AuthorName string `json:"authorName"`
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// Client fetches video metadata.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
	maxRetries     int
}

// NewClient creates a client for the public oEmbed endpoint.
func NewClient() *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		baseURL:        "https://www.youtube.com/oembed",
		requestTimeout: 5 * time.Second,
		maxRetries:     2,
	}
}

// Metadata resolves title and author for a video id.
func (c *Client) Metadata(ctx context.Context, videoID string) (*Video, error) {
	if !validVideoID(videoID) {
		return nil, ErrInvalidURL
	}

	params := url.Values{}
	params.Set("url", "https://www.youtube.com/watch?v="+videoID)
	params.Set("format", "json")
	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info().Int("attempt", attempt).Str("video_id", videoID).Msg("retrying oembed request")
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
		}

		video, retry, err := c.attempt(ctx, reqURL, videoID)
		if err == nil {
			return video, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("oembed request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// attempt runs a single oembed request with its own timeout, so
// backoff sleeps never eat into a later attempt's budget.
func (c *Client) attempt(ctx context.Context, reqURL, videoID string) (video *Video, retry bool, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("oembed request failed")
		return nil, true, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body oembedResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, false, fmt.Errorf("failed to decode oembed response: %w", err)
		}
		return &Video{VideoID: videoID, Title: body.Title, AuthorName: body.AuthorName}, false, nil
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
		// oEmbed answers 401/403 for private or embed-disabled videos;
		// none of these are retryable.
		return nil, false, ErrNotFound
	default:
		logger.Warn().Int("status", resp.StatusCode).Msg("oembed returned non-OK status")
		return nil, true, fmt.Errorf("oembed request failed with status %d", resp.StatusCode)
	}
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func validVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// bareVideoID accepts an id pasted with no URL around it. The id
// alphabet also matches hyphenated lowercase words ("not-a-video"),
// so a bare token must carry a digit, an uppercase letter, or an
// underscore before it is trusted; inside a recognized URL the host
// already disambiguates.
func bareVideoID(s string) bool {
	if !validVideoID(s) {
		return false
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || r == '_'
	})
}

// ParseVideoID extracts the 11-character video id from the URL forms
// users actually paste: watch, youtu.be, embed, shorts, live, or a
// bare id.
func ParseVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if bareVideoID(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrInvalidURL
	}
	if u.Scheme == "" {
		// Users paste URLs without a scheme all the time.
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", ErrInvalidURL
		}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		if id := firstPathSegment(u.Path); validVideoID(id) {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if id := u.Query().Get("v"); validVideoID(id) {
			return id, nil
		}
		for _, prefix := range []string{"/embed/", "/shorts/", "/live/", "/v/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := firstPathSegment(strings.TrimPrefix(u.Path, prefix)); validVideoID(id) {
					return id, nil
				}
			}
		}
	}
	return "", ErrInvalidURL
}

func firstPathSegment(p string) string {
	p = strings.TrimPrefix(p, "/")
	if i := strings.IndexByte(p, '/'); i >= 0 {
		p = p[:i]
	}
	return p
}
