// Package server exposes the router over HTTP.
//
//	GET  /healthz              liveness
//	POST /api/v1/route         route a JSON problem
//	POST /api/v1/route/kicad   route a .kicad_pcb body, answer with the new copper
package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/OpenTraceLab/OpenTraceRoute/internal/config"
	"github.com/OpenTraceLab/OpenTraceRoute/internal/session"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/pcb"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

// MaxBoardSize caps a request body, JSON problem or .kicad_pcb.
const MaxBoardSize = 32 << 20

// RouteRequest is a routing problem with optional per-request settings.
// Settings given here replace the server's defaults as a whole.
type RouteRequest struct {
	pcb.Problem
	Config *config.RouterConfig `json:"config,omitempty"`
}

// RouteResponse carries the negotiation result. Trials is set when more
// than one seed was given; KiCad is set for board requests.
type RouteResponse struct {
	Result *negotiate.Result      `json:"result"`
	Trials *negotiate.TrialResult `json:"trials,omitempty"`
	KiCad  string                 `json:"kicad,omitempty"`
}

// Server routes requests with fixed base rules.
type Server struct {
	rules    rules.DesignRules
	settings *config.RouterConfig
	timeout  time.Duration
	maxBody  int64
	engine   *gin.Engine
}

// New builds a server. settings may be nil; timeout bounds each request's
// negotiation, zero means unbounded.
func New(base rules.DesignRules, settings *config.RouterConfig, timeout time.Duration) *Server {
	s := &Server{rules: base, settings: settings, timeout: timeout, maxBody: MaxBoardSize}

	r := gin.Default()
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"*"}
	r.Use(cors.New(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	api := r.Group("/api/v1")
	api.POST("/route", s.handleRoute)
	api.POST("/route/kicad", s.handleKiCad)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	routing.Opsf("server: listening on %s", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) context(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), s.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

func (s *Server) handleRoute(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	settings := s.settings
	if req.Config != nil {
		settings = req.Config
	}

	ctx, cancel := s.context(c)
	defer cancel()
	out, err := session.Run(ctx, session.Job{Problem: &req.Problem, Rules: s.rules, Settings: settings})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, RouteResponse{Result: out.Result, Trials: out.Trials})
}

func (s *Server) handleKiCad(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	board, err := pcb.Parse(body)
	if err != nil {
		badBody(c, err)
		return
	}

	r, _, _, err := session.Resolve(s.rules, s.settings)
	if err != nil {
		fail(c, err)
		return
	}
	problem, err := board.RoutingProblem(r)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := s.context(c)
	defer cancel()
	out, err := session.Run(ctx, session.Job{Problem: problem, Rules: s.rules, Settings: s.settings})
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := pcb.WriteRoutes(&buf, out.Result.Routes, problem.CopperLayers); err != nil {
		fail(c, err)
		return
	}
	if c.Query("format") == "sexp" {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
		return
	}
	c.JSON(http.StatusOK, RouteResponse{Result: out.Result, Trials: out.Trials, KiCad: buf.String()})
}

// badBody answers a request whose body could not be read or decoded.
func badBody(c *gin.Context, err error) {
	status := http.StatusBadRequest
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// fail maps routing errors onto status codes: bad input is the caller's
// fault, anything else is ours.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	for _, target := range []error{
		routing.ErrInvalidRules,
		routing.ErrInvalidNet,
		routing.ErrInvalidConfig,
		routing.ErrOutOfRange,
		routing.ErrGridTooLarge,
	} {
		if errors.Is(err, target) {
			status = http.StatusBadRequest
			break
		}
	}
	if status == http.StatusInternalServerError {
		routing.Diagf("server: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
