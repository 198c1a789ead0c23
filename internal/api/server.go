// Package api exposes the thin HTTP surface: card and issue reads for the
// frontend, plus the import trigger. All extraction logic stays in the
// pipeline; handlers only translate.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hindsite/internal/pipeline"
	"hindsite/internal/store"
)

// Cards is the read-side store contract the handlers need.
type Cards interface {
	ListCards(ctx context.Context) ([]store.CardRow, error)
	ListIssues(ctx context.Context) ([]store.IssueRecord, error)
}

// Importer triggers background import runs.
type Importer interface {
	StartImport(ctx context.Context) error
}

// Server wires handlers onto a gin engine.
type Server struct {
	cards    Cards
	importer Importer
	logger   *zap.Logger
}

// NewServer creates the API server.
func NewServer(cards Cards, importer Importer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cards: cards, importer: importer, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api")
	apiGroup.GET("/cards", s.getCards)
	apiGroup.GET("/issues", s.getIssues)
	apiGroup.POST("/import", s.postImport)

	return router
}

// Run starts the HTTP server on addr.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

// getCards handles GET /api/cards: all cards ordered by temporal anchor
// ascending (nulls last), then issue publish date ascending.
func (s *Server) getCards(c *gin.Context) {
	cards, err := s.cards.ListCards(c.Request.Context())
	if err != nil {
		s.logger.Error("list cards failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list cards failed"})
		return
	}
	if cards == nil {
		cards = []store.CardRow{}
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// getIssues handles GET /api/issues: issues ordered by publish date.
func (s *Server) getIssues(c *gin.Context) {
	issues, err := s.cards.ListIssues(c.Request.Context())
	if err != nil {
		s.logger.Error("list issues failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list issues failed"})
		return
	}
	if issues == nil {
		issues = []store.IssueRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

// postImport handles POST /api/import: fires a background import run. A run
// already in flight answers 409 instead of stacking a second one.
func (s *Server) postImport(c *gin.Context) {
	// The run outlives the request; detach it from the request context.
	err := s.importer.StartImport(context.Background())
	if errors.Is(err, pipeline.ErrImportInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("import trigger failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import trigger failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "import started"})
}
