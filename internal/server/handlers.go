package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kaizau/pinyin-ktv-replit/internal/lyrics"
	"github.com/kaizau/pinyin-ktv-replit/internal/session"
	"github.com/kaizau/pinyin-ktv-replit/pkg/lrclib"
	"github.com/kaizau/pinyin-ktv-replit/pkg/youtube"
)

// videoResponse is the lookup result for a pasted URL: the resolved
// video plus the search terms extracted from its title.
type videoResponse struct {
	VideoID string `json:"videoId"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Query   struct {
		Title  string `json:"title"`
		Artist string `json:"artist"`
	} `json:"query"`
}

// handleVideo resolves ?url= into video metadata and search terms.
func (s *Server) handleVideo(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url parameter"})
		return
	}

	videoID, err := youtube.ParseVideoID(rawURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a recognizable video url"})
		return
	}

	key := "video:" + videoID
	if cached, ok := s.cache.Get(c.Request.Context(), key); ok {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	video, err := s.video.Metadata(c.Request.Context(), videoID)
	if err != nil {
		if errors.Is(err, youtube.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found or not embeddable"})
			return
		}
		s.logger.Error().Err(err).Str("video_id", videoID).Msg("video metadata lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "video lookup failed"})
		return
	}

	resp := videoResponse{VideoID: video.VideoID, Title: video.Title, Author: video.AuthorName}
	info := s.extractor.Extract(video.Title, video.AuthorName)
	resp.Query.Title = info.Title
	resp.Query.Artist = info.Artist

	s.putJSON(c, key, resp)
	c.JSON(http.StatusOK, resp)
}

// handleSearch proxies the lyric database search. An empty result set
// is a normal answer, not an error.
func (s *Server) handleSearch(c *gin.Context) {
	q := lrclib.SearchQuery{
		Query:      c.Query("q"),
		TrackName:  c.Query("track"),
		ArtistName: c.Query("artist"),
	}
	if q.Query == "" && q.TrackName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing search terms"})
		return
	}

	key := fmt.Sprintf("search:%s|%s|%s", q.Query, q.TrackName, q.ArtistName)
	if cached, ok := s.cache.Get(c.Request.Context(), key); ok {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	results, err := s.lyrics.Search(c.Request.Context(), q)
	if err != nil {
		s.logger.Error().Err(err).Msg("lyrics search failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "lyrics search failed"})
		return
	}
	if results == nil {
		results = []lrclib.Record{}
	}

	resp := gin.H{"results": results}
	s.putJSON(c, key, resp)
	c.JSON(http.StatusOK, resp)
}

// handleLyrics fetches one lyric record by database id.
func (s *Server) handleLyrics(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lyrics id"})
		return
	}

	record, err := s.getRecord(c, id)
	if err != nil {
		if errors.Is(err, lrclib.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lyrics not found"})
			return
		}
		s.logger.Error().Err(err).Int("id", id).Msg("lyrics fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "lyrics fetch failed"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// getRecord is the cached lyric-record lookup shared by the lyrics and
// track endpoints.
func (s *Server) getRecord(c *gin.Context, id int) (*lrclib.Record, error) {
	key := "lyrics:" + strconv.Itoa(id)
	if cached, ok := s.cache.Get(c.Request.Context(), key); ok {
		var record lrclib.Record
		if err := json.Unmarshal([]byte(cached), &record); err == nil {
			return &record, nil
		}
	}

	record, err := s.lyrics.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	s.putJSON(c, key, record)
	return record, nil
}

type createSessionRequest struct {
	URL string `json:"url" binding:"required"`
}

// handleCreateSession resolves the URL and registers a fresh session.
func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing video url"})
		return
	}

	videoID, err := youtube.ParseVideoID(req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a recognizable video url"})
		return
	}

	// Metadata is decoration here; a session for an unrecognized video
	// still works, the client just shows the bare id.
	title, author := "", ""
	if video, err := s.video.Metadata(c.Request.Context(), videoID); err == nil {
		title, author = video.Title, video.AuthorName
	} else {
		s.logger.Warn().Err(err).Str("video_id", videoID).Msg("metadata unavailable for new session")
	}

	sess := s.sessions.Create(videoID, title, author)
	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	s.sessions.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}

type setTrackRequest struct {
	ID int `json:"id" binding:"required"`
}

// handleSetTrack selects a lyric record for the session. Concurrent
// selections settle last-wins; a discarded selection answers 409 so
// the client knows its pick lost the race.
func (s *Server) handleSetTrack(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req setTrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing track id"})
		return
	}

	record, err := s.getRecord(c, req.ID)
	if err != nil {
		if errors.Is(err, lrclib.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lyrics not found"})
			return
		}
		s.logger.Error().Err(err).Int("id", req.ID).Msg("track fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "lyrics fetch failed"})
		return
	}

	if !sess.SetTrack(recordToTrack(record)) {
		c.JSON(http.StatusConflict, gin.H{"error": "superseded by a newer selection"})
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func recordToTrack(r *lrclib.Record) *lyrics.TrackSelection {
	return &lyrics.TrackSelection{
		ID:           r.ID,
		TrackName:    r.TrackName,
		ArtistName:   r.ArtistName,
		AlbumName:    r.AlbumName,
		Duration:     r.Duration,
		Instrumental: r.Instrumental,
		PlainLyrics:  r.PlainLyrics,
		SyncedLyrics: r.SyncedLyrics,
	}
}

type playerEventRequest struct {
	Type string   `json:"type" binding:"required"`
	Time *float64 `json:"time"`
}

// handlePlayerEvent ingests a playback notification from the embedded
// player.
func (s *Server) handlePlayerEvent(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req playerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing event type"})
		return
	}

	ev := session.PlayerEvent{Type: session.EventType(req.Type)}
	if req.Time != nil {
		ev.Time = *req.Time
		ev.HasTime = true
	}
	switch ev.Type {
	case session.EventPlaying, session.EventPaused, session.EventEnded, session.EventTime:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
		return
	}
	if ev.Type == session.EventTime && !ev.HasTime {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time event requires a time"})
		return
	}

	sess.HandleEvent(ev)
	c.JSON(http.StatusOK, gin.H{"state": sess.State()})
}

type seekRequest struct {
	Time *float64 `json:"time" binding:"required"`
}

// handleSeek applies a user line-selection jump.
func (s *Server) handleSeek(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing seek time"})
		return
	}

	sess.SeekTo(*req.Time)
	c.JSON(http.StatusOK, gin.H{"state": sess.State()})
}

// putJSON stores the serialized response body under key. Cache writes
// are best-effort.
func (s *Server) putJSON(c *gin.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.cache.Put(c.Request.Context(), key, string(data))
}
