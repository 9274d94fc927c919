// Package server exposes the HTTP API: video lookup, lyric search, and
// per-session playback endpoints, plus the static web shell.
package server

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kaizau/pinyin-ktv-replit/internal/session"
	"github.com/kaizau/pinyin-ktv-replit/internal/songinfo"
	"github.com/kaizau/pinyin-ktv-replit/pkg/cache"
	"github.com/kaizau/pinyin-ktv-replit/pkg/lrclib"
	"github.com/kaizau/pinyin-ktv-replit/pkg/youtube"
)

// LyricsSource is the lyric database the server queries.
type LyricsSource interface {
	Get(ctx context.Context, id int) (*lrclib.Record, error)
	Search(ctx context.Context, q lrclib.SearchQuery) ([]lrclib.Record, error)
}

// VideoSource resolves video ids to their metadata.
type VideoSource interface {
	Metadata(ctx context.Context, videoID string) (*youtube.Video, error)
}

// Options carries the collaborators for a Server.
type Options struct {
	Lyrics    LyricsSource
	Video     VideoSource
	Extractor *songinfo.Extractor
	Sessions  *session.Manager
	Cache     cache.Cache
	StaticDir string
}

// Server is the gin router plus its collaborators.
type Server struct {
	engine    *gin.Engine
	lyrics    LyricsSource
	video     VideoSource
	extractor *songinfo.Extractor
	sessions  *session.Manager
	cache     cache.Cache
	logger    zerolog.Logger
}

// New builds the router and registers all routes.
func New(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:    gin.New(),
		lyrics:    opts.Lyrics,
		video:     opts.Video,
		extractor: opts.Extractor,
		sessions:  opts.Sessions,
		cache:     opts.Cache,
		logger:    log.With().Str("component", "server").Logger(),
	}
	s.engine.Use(gin.Recovery(), s.requestLog())
	s.setupRoutes(opts.StaticDir)
	return s
}

func (s *Server) setupRoutes(staticDir string) {
	if staticDir != "" {
		s.engine.StaticFile("/", filepath.Join(staticDir, "index.html"))
		s.engine.Static("/static", filepath.Join(staticDir, "static"))
	}

	api := s.engine.Group("/api")
	{
		api.GET("/video", s.handleVideo)
		api.GET("/search", s.handleSearch)
		api.GET("/lyrics/:id", s.handleLyrics)

		sessions := api.Group("/sessions")
		{
			sessions.POST("", s.handleCreateSession)
			sessions.GET("/:id", s.handleGetSession)
			sessions.DELETE("/:id", s.handleDeleteSession)
			sessions.POST("/:id/track", s.handleSetTrack)
			sessions.POST("/:id/player", s.handlePlayerEvent)
			sessions.POST("/:id/seek", s.handleSeek)
		}
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}

// Handler exposes the router for an http.Server.
func (s *Server) Handler() http.Handler {
	return s.engine
}
