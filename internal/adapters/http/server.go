package httpadapter

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/PabloGalante/onestep/internal/app/journal"
	"github.com/PabloGalante/onestep/internal/app/session"
	"github.com/PabloGalante/onestep/internal/app/steps"
	"github.com/PabloGalante/onestep/internal/domain"
)

// Deps are the collaborators the HTTP boundary drives.
type Deps struct {
	Registry  *session.Registry
	Journal   *journal.Service
	Steps     *steps.Service
	Generator domain.ResponseGenerator

	// RateLimit caps requests per client on /api and message posts.
	RateLimit RateLimit
	// AllowOrigins for CORS. Empty allows any origin.
	AllowOrigins []string

	Now func() time.Time
}

type Server struct {
	registry  *session.Registry
	journal   *journal.Service
	steps     *steps.Service
	generator domain.ResponseGenerator
	now       func() time.Time
}

// NewServer wires the routes and middleware into a gin engine.
func NewServer(d Deps) http.Handler {
	s := &Server{
		registry:  d.Registry,
		journal:   d.Journal,
		steps:     d.Steps,
		generator: d.Generator,
		now:       d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery(), withRequestID(), withLogging(), withCORS(d.AllowOrigins))

	limited := newClientLimiter(d.RateLimit).middleware()

	router.GET("/healthz", s.handleHealthz)

	api := router.Group("/api", limited)
	{
		api.POST("/generate", s.handleGenerate)
		api.POST("/steps", s.handleNextStep)
		api.POST("/steps/smaller", s.handleSmallerStep)
	}

	sessions := router.Group("/sessions")
	{
		sessions.POST("", s.handleCreateSession)
		sessions.GET("/:id", s.handleGetSession)
		sessions.POST("/:id/messages", limited, s.handleSendMessage)
		sessions.DELETE("/:id", s.handleCloseSession)
	}

	router.GET("/journal", s.handleListJournal)
	router.DELETE("/journal/:id", s.handleDeleteJournalEntry)

	return router
}

func withCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
