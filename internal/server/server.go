package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"

	"github.com/kode4food/flowrun/internal/runner"
	"github.com/kode4food/flowrun/internal/store"
	"github.com/kode4food/flowrun/pkg/api"
)

// Server implements the HTTP API server for flow runs
type Server struct {
	store      *store.Store
	runner     *runner.Runner
	sockets    map[*Client]struct{}
	runTimeout time.Duration
	mu         sync.Mutex
}

var ErrInvalidJSON = errors.New("invalid JSON request")

// NewServer creates a new HTTP API server. Each run is bounded by
// runTimeout when it is positive
func NewServer(
	st *store.Store, run *runner.Runner, runTimeout time.Duration,
) *Server {
	return &Server{
		store:      st,
		runner:     run,
		runTimeout: runTimeout,
		sockets:    map[*Client]struct{}{},
	}
}

// SetupRoutes configures and returns the HTTP router with all API endpoints
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(c *gin.Context, l *slog.Logger) *slog.Logger {
			return slog.Default()
		}),
	))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set(
			"Access-Control-Allow-Methods",
			"GET, POST, PUT, DELETE, OPTIONS",
		)
		c.Writer.Header().Set(
			"Access-Control-Allow-Headers",
			"Content-Type, Authorization",
		)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	router.GET("/health", s.handleHealth)

	v1 := router.Group("/api/v1")
	{
		// Flow endpoints
		v1.GET("/flows", s.listFlows)
		v1.POST("/flows", s.createFlow)
		v1.GET("/flows/:flowID", s.getFlow)
		v1.PUT("/flows/:flowID", s.updateFlow)
		v1.DELETE("/flows/:flowID", s.deleteFlow)

		// Run endpoints
		v1.POST("/run/:flowID", s.runFlow)
		v1.POST("/run/advanced/:flowID", s.runAdvanced)
		v1.GET("/run/:flowID/ws", s.handleWebSocket)

		// Session endpoints
		v1.GET("/sessions/:sessionID", s.getSession)
		v1.DELETE("/sessions/:sessionID", s.deleteSession)

		// Schema endpoints
		v1.GET("/schema", s.listSchemas)
		v1.GET("/schema/:name", s.getSchema)
	}

	return router
}

func (s *Server) registerWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets[c] = struct{}{}
}

func (s *Server) unregisterWebSocket(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sockets, c)
}

// CloseWebSockets closes all active WebSocket connections
func (s *Server) CloseWebSockets() {
	s.mu.Lock()
	conns := make([]*Client, 0, len(s.sockets))
	for c := range s.sockets {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func respondError(c *gin.Context, status int, err error) {
	res := api.ErrorResponse{
		Error:  err.Error(),
		Status: status,
	}
	var ve *api.ValidationError
	if errors.As(err, &ve) {
		res.Fields = ve.Fields
	}
	c.JSON(status, res)
}
