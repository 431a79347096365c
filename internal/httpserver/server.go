package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/odometer/internal/display"
	"github.com/tinytelemetry/odometer/internal/model"
	"github.com/tinytelemetry/odometer/internal/odometer"
)

// Config controls the HTTP API.
type Config struct {
	Addr string
	// StreamInterval is the snapshot push cadence of the websocket stream.
	StreamInterval time.Duration
	// RateLimit is the sustained mutating requests per second per client;
	// zero disables limiting.
	RateLimit float64
	RateBurst int
	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
}

// Server provides an HTTP API for reading and driving displays.
type Server struct {
	cfg       Config
	displays  model.DisplayAPI
	limiter   *RateLimiter
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(cfg Config, displays model.DisplayAPI) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:3000"
	}
	if cfg.StreamInterval <= 0 {
		cfg.StreamInterval = model.DefaultStreamInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		displays:  displays,
		limiter:   NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
}

// Handler builds the route table. The websocket stream is served by the mux
// in front of the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/displays", s.handleList)
	r.GET("/api/displays/:name", s.handleSnapshot)
	r.GET("/api/displays/:name/options/:option", s.handleGetOption)

	mutate := r.Group("/api/displays", s.limiter.Middleware())
	mutate.POST("/:name/:method", s.handleInvoke)
	mutate.PUT("/:name/options/:option", s.handleSetOption)

	if s.cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.cfg.Metrics))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/displays/{name}/stream", s.handleStream)
	mux.Handle("/", r)
	return mux
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server. Open streams end when the base
// context is cancelled.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	names, err := s.displays.ListDisplays()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list displays"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"uptime":   time.Since(s.startTime).String(),
		"displays": len(names),
	})
}

func (s *Server) handleList(c *gin.Context) {
	names, err := s.displays.ListDisplays()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"displays": names})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	snap, err := s.displays.Snapshot(c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleInvoke(c *gin.Context) {
	var req struct {
		Value float64 `json:"value"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
	}

	v, err := s.displays.Invoke(c.Param("name"), c.Param("method"), req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": v})
}

func (s *Server) handleGetOption(c *gin.Context) {
	v, err := s.displays.Option(c.Param("name"), c.Param("option"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"option": c.Param("option"), "value": v})
}

func (s *Server) handleSetOption(c *gin.Context) {
	var req struct {
		Value any `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	name, option := c.Param("name"), c.Param("option")
	if err := s.displays.SetOption(name, option, req.Value); err != nil {
		writeError(c, err)
		return
	}
	v, err := s.displays.Option(name, option)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"option": option, "value": v})
}

// writeError maps engine and display errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

// writeHTTPError is writeError for handlers outside the gin engine.
func writeHTTPError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(errorStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, display.ErrNotFound), errors.Is(err, odometer.ErrUnsupported):
		return http.StatusNotFound
	case errors.Is(err, odometer.ErrInvalidOption):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
