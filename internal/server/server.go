package server

import (
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/snipsd/snipsd/internal/config"
	"github.com/snipsd/snipsd/internal/core"
	"github.com/snipsd/snipsd/internal/store"
)

// Server is the HTTP surface over the snippet store and the duplicate-review
// session. One session is shared across requests, matching the single review
// window of the original application.
type Server struct {
	Store   store.SnippetStore
	Session *core.Session
	Cfg     *config.Config
	Logger  zerolog.Logger
}

func New(st store.SnippetStore, cfg *config.Config, logger zerolog.Logger) *Server {
	return &Server{
		Store:   st,
		Session: core.NewSession(st, logger),
		Cfg:     cfg,
		Logger:  logger,
	}
}

// NewFromEnv builds a Server from CONFIG_PATH (optional TOML file) with
// env-var overrides, and opens the SQLite store.
func NewFromEnv() *Server {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "server").Logger()

	cfg := config.Default()
	if cfgPath := os.Getenv("CONFIG_PATH"); cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load configuration")
		}
		cfg = loaded
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("SNIPSD_DB"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if raw := os.Getenv("SNIPSD_THRESHOLD"); raw != "" {
		th, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Fatal().Str("value", raw).Msg("invalid SNIPSD_THRESHOLD")
		}
		cfg.Dedupe.Threshold = th
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open snippet store")
	}

	return New(st, cfg, logger)
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/snippets", s.listSnippets)
	r.POST("/snippets", s.createSnippet)
	r.GET("/snippets/:id", s.getSnippet)
	r.PUT("/snippets/:id", s.updateSnippet)
	r.DELETE("/snippets/:id", s.deleteSnippet)

	r.GET("/tags", s.listTags)

	r.POST("/analyze", s.analyzeDuplicates)
	r.GET("/duplicates", s.getDuplicates)
	r.POST("/duplicates/:index/merge", s.mergeDuplicates)
	r.POST("/duplicates/:index/delete", s.deleteDuplicates)

	return r
}
