package server

import (
	"context"
	"time"

	"github.com/avoronin/cvmatch/internal/jobboard"
	"github.com/avoronin/cvmatch/internal/matching"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Matcher runs the matching pipeline for one request.
type Matcher interface {
	Match(ctx context.Context, req matching.Request) (*matching.Result, error)
}

// Server exposes the matching pipeline over HTTP.
type Server struct {
	engine   *gin.Engine
	pipeline Matcher
	searcher jobboard.Searcher
	logger   *zap.Logger
	addr     string
}

// New builds the HTTP server and registers its routes.
func New(addr string, pipeline Matcher, searcher jobboard.Searcher, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		pipeline: pipeline,
		searcher: searcher,
		logger:   logger,
		addr:     addr,
	}

	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())
	engine.Use(cors.New(corsConfig()))

	api := engine.Group("/api/v1")
	api.GET("/health", s.health)
	api.POST("/jobs/match", s.matchJobs)
	api.GET("/jobs/search", s.searchJobs)

	s.engine = engine
	return s
}

// Run starts serving. Blocks until the listener fails.
func (s *Server) Run() error {
	return s.engine.Run(s.addr)
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
