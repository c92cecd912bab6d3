// Package api is the HTTP surface of the tutor: REST endpoints for the
// dictionary, the review loop, progress, and settings, plus the SSE tutor
// stream and the TTS endpoint.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/kotoba-lab/sensei/pkg/database"
	"github.com/kotoba-lab/sensei/pkg/services"
	"github.com/kotoba-lab/sensei/pkg/tts"
	"github.com/kotoba-lab/sensei/pkg/tutor"
)

// Server represents the API server
type Server struct {
	db       *database.Client
	catalog  *services.CatalogService
	review   *services.ReviewService
	progress *services.ProgressService
	settings *services.SettingsService
	tutor    *tutor.Gateway
	tts      *tts.Synthesizer
	logger   *slog.Logger
	engine   *gin.Engine
}

// NewServer creates a new API server and registers all routes.
func NewServer(
	db *database.Client,
	catalog *services.CatalogService,
	review *services.ReviewService,
	progress *services.ProgressService,
	settings *services.SettingsService,
	tutorGW *tutor.Gateway,
	synth *tts.Synthesizer,
	logger *slog.Logger,
) *Server {
	s := &Server{
		db:       db,
		catalog:  catalog,
		review:   review,
		progress: progress,
		settings: settings,
		tutor:    tutorGW,
		tts:      synth,
		logger:   logger.With("component", "api"),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(s.logger))
	s.registerRoutes(engine)
	s.engine = engine
	return s
}

// Engine returns the configured router, ready to serve.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/health", s.Health)

	api.GET("/vocab", s.ListVocab)
	api.GET("/vocab/:id", s.GetVocab)

	api.GET("/kanji", s.ListKanji)
	api.GET("/kanji/:character", s.GetKanji)

	cards := api.Group("/cards")
	cards.GET("/due", s.DueCards)
	cards.GET("/new", s.NewItems)
	cards.POST("/review", s.SubmitReview)
	cards.POST("/sessions", s.StartSession)
	cards.GET("/sessions/:id", s.GetSession)
	cards.PATCH("/sessions/:id", s.EndSession)

	api.GET("/progress", s.Progress)

	api.GET("/settings", s.AllSettings)
	api.GET("/settings/:key", s.GetSetting)
	api.POST("/settings", s.UpdateSetting)

	api.POST("/tutor/chat", s.TutorChat)
	api.POST("/tts", s.Speak)
}
