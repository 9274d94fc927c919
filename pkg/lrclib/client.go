// Package lrclib is a client for the lrclib.net lyrics database.
package lrclib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when the database has no record for the
// request. Distinct from transport errors: the fetch succeeded, there
// is just nothing there.
var ErrNotFound = errors.New("lyrics not found")

var logger = log.With().Str("component", "lrclib").Logger()

// Record is one lyrics record as served by the API.
type Record struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasSyncedLyrics reports whether the record carries line-timed lyrics.
func (r *Record) HasSyncedLyrics() bool {
	return r.SyncedLyrics != ""
}

// HasPlainLyrics reports whether the record carries untimed lyrics.
func (r *Record) HasPlainLyrics() bool {
	return r.PlainLyrics != ""
}

// SearchQuery is a free-text or structured search. Query wins when
// set; otherwise TrackName/ArtistName are sent as structured terms.
type SearchQuery struct {
	Query      string
	TrackName  string
	ArtistName string
}

// Client is an lrclib.net API client with bounded retries.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	requestTimeout time.Duration
	maxRetries     int
	userAgent      string
}

// NewClient creates a client for the public lrclib.net API.
func NewClient() *Client {
	return &Client{
		httpClient:     &http.Client{Timeout: 5 * time.Second},
		baseURL:        "https://lrclib.net/api",
		requestTimeout: 5 * time.Second,
		maxRetries:     3,
		userAgent:      "pinyin-ktv/1.0 (https://github.com/kaizau/pinyin-ktv-replit)",
	}
}

// Get fetches a single record by its opaque id.
func (c *Client) Get(ctx context.Context, id int) (*Record, error) {
	var record Record
	if err := c.getJSON(ctx, fmt.Sprintf("%s/get/%d", c.baseURL, id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Search runs a search and returns records in provider order. An empty
// result set is not an error; callers present it as "no lyrics found".
func (c *Client) Search(ctx context.Context, q SearchQuery) ([]Record, error) {
	params := url.Values{}
	if q.Query != "" {
		params.Set("q", q.Query)
	} else {
		if q.TrackName != "" {
			params.Set("track_name", q.TrackName)
		}
		if q.ArtistName != "" {
			params.Set("artist_name", q.ArtistName)
		}
	}
	if len(params) == 0 {
		return nil, errors.New("empty search query")
	}

	var records []Record
	if err := c.getJSON(ctx, fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode()), &records); err != nil {
		return nil, err
	}

	logger.Info().Int("results", len(records)).Str("query", q.Query).
		Str("track", q.TrackName).Str("artist", q.ArtistName).Msg("search complete")
	return records, nil
}

// getJSON issues a GET with bounded retries and decodes the response.
// 404 maps to ErrNotFound and is not retried.
func (c *Client) getJSON(ctx context.Context, reqURL string, v any) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Info().Int("attempt", attempt).Int("max", c.maxRetries).Msg("retrying request")
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
		}

		retry, err := c.attemptJSON(ctx, reqURL, v)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// attemptJSON runs a single request with its own timeout, so backoff
// sleeps between attempts never eat into a later attempt's budget.
func (c *Client) attemptJSON(ctx context.Context, reqURL string, v any) (retry bool, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("request failed")
		return true, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
		return false, nil
	case http.StatusNotFound:
		return false, ErrNotFound
	default:
		logger.Warn().Int("status", resp.StatusCode).Msg("request returned non-OK status")
		return true, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
}
