// Package server exposes inspection over HTTP.
//
// Clients POST raw media bytes and get the unified metadata back as JSON,
// or the cover picture as an image.
package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/simonhull/metaspector"
	"github.com/simonhull/metaspector/internal/config"
)

// Server represents the HTTP API.
type Server struct {
	router *gin.Engine
	cfg    config.Server
	opts   []metaspector.Option
	log    *slog.Logger
}

// New builds a server from cfg. Decode settings come from cfg as well;
// decoder diagnostics go to logger at debug level.
func New(cfg *config.Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		router: gin.New(),
		cfg:    cfg.Server,
		opts:   cfg.Options(logger),
		log:    logger,
	}
	s.router.Use(gin.Recovery(), s.requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.AllowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	s.router.Use(cors.New(corsCfg))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/inspect", s.inspect)
		v1.POST("/cover", s.cover)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.log.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Request.ContentLength,
			"latency", time.Since(start))
	}
}

func (s *Server) health(c *gin.Context) {
	s.writeJSON(c, http.StatusOK, gin.H{
		"status":  "ok",
		"version": metaspector.Version,
	})
}

func (s *Server) inspect(c *gin.Context) {
	opts := s.opts
	if name := c.Query("section"); name != "" {
		section, err := metaspector.ParseSection(name)
		if err != nil {
			s.writeError(c, http.StatusBadRequest, err)
			return
		}
		opts = append(opts[:len(opts):len(opts)], metaspector.WithSection(section))
	}

	body, ok := s.readBody(c)
	if !ok {
		return
	}
	md, err := metaspector.Inspect(bytes.NewReader(body), int64(len(body)), opts...)
	if err != nil {
		s.writeError(c, decodeStatus(err), err)
		return
	}
	s.writeJSON(c, http.StatusOK, md)
}

func (s *Server) cover(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}
	art, err := metaspector.ExtractCoverArt(bytes.NewReader(body), int64(len(body)), s.opts...)
	if err != nil {
		s.writeError(c, decodeStatus(err), err)
		return
	}
	if art == nil {
		s.writeJSON(c, http.StatusNotFound, gin.H{"error": "no cover art"})
		return
	}
	c.Data(http.StatusOK, art.MIMEType, art.Data)
}

// readBody reads the request body up to the configured limit, answering
// 413 past it.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	r := http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(c, http.StatusRequestEntityTooLarge, err)
		} else {
			s.writeError(c, http.StatusBadRequest, err)
		}
		return nil, false
	}
	return body, true
}

func decodeStatus(err error) int {
	if errors.Is(err, metaspector.ErrUnsupportedFormat) {
		return http.StatusUnsupportedMediaType
	}
	return http.StatusUnprocessableEntity
}

func (s *Server) writeError(c *gin.Context, status int, err error) {
	body := gin.H{"error": err.Error()}
	if kind := metaspector.KindOf(err); kind != metaspector.KindUnknown {
		body["kind"] = kind.String()
	}
	s.writeJSON(c, status, body)
}

// writeJSON encodes v with go-json rather than gin's renderer.
func (s *Server) writeJSON(c *gin.Context, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode response", "err", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", data)
}
