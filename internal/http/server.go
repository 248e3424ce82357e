// Package http serves the sitegen API: generation requests, job status and a
// websocket progress stream.
package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/sitegen/internal/config"
	"github.com/fyrsmithlabs/sitegen/internal/jobs"
	"github.com/fyrsmithlabs/sitegen/internal/logging"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
	"github.com/fyrsmithlabs/sitegen/internal/telemetry"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ServiceName is reported by GET /.
const ServiceName = "sitegen API"

// JobStore is the subset of the job tracker the API needs.
type JobStore interface {
	Create() string
	Schedule(id string, wf jobs.Workflow) error
	Get(id string) (jobs.Job, error)
	List() []jobs.Job
	Delete(id string) error
}

var _ JobStore = (*jobs.Tracker)(nil)

// WorkflowFactory builds the workflow a generation job runs.
type WorkflowFactory func(in stage.BusinessInput) jobs.Workflow

// Deps are the collaborators a Server is built from.
type Deps struct {
	Jobs      JobStore
	Workflows WorkflowFactory
	// AIMode is reported on /health: "mock" or "real".
	AIMode  string
	Version string
	// Gatherer backs /metrics. Nil means the default Prometheus registry.
	Gatherer  prometheus.Gatherer
	Metrics   *HTTPMetrics
	Telemetry *telemetry.Telemetry
	Logger    *logging.Logger
	// PollInterval controls websocket change detection.
	PollInterval time.Duration
}

// Server provides the HTTP endpoints.
type Server struct {
	echo         *echo.Echo
	cfg          config.ServerConfig
	jobs         JobStore
	workflows    WorkflowFactory
	aiMode       string
	version      string
	telemetry    *telemetry.Telemetry
	logger       *logging.Logger
	upgrader     websocket.Upgrader
	pollInterval time.Duration
	now          func() time.Time
}

// NewServer creates the server and registers its routes.
func NewServer(cfg config.ServerConfig, auth config.AuthConfig, deps Deps) (*Server, error) {
	if deps.Jobs == nil {
		return nil, errors.New("job store is required")
	}
	if deps.Workflows == nil {
		return nil, errors.New("workflow factory is required")
	}
	if deps.Logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Metrics == nil {
		deps.Metrics = NewHTTPMetrics(nil, deps.Logger)
	}
	if deps.PollInterval <= 0 {
		deps.PollInterval = DefaultPollInterval
	}
	if deps.AIMode == "" {
		deps.AIMode = "mock"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:         e,
		cfg:          cfg,
		jobs:         deps.Jobs,
		workflows:    deps.Workflows,
		aiMode:       deps.AIMode,
		version:      deps.Version,
		telemetry:    deps.Telemetry,
		logger:       deps.Logger.Named("http"),
		upgrader:     newUpgrader(cfg.CORSOrigins),
		pollInterval: deps.PollInterval,
		now:          time.Now,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(s.requestLogger)
	e.Use(deps.Metrics.MetricsMiddleware())

	s.registerRoutes(auth, deps.Gatherer)
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes(auth config.AuthConfig, gatherer prometheus.Gatherer) {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	if auth.Enabled() {
		v1.Use(JWTMiddleware(auth))
	}
	v1.POST("/sites/generate", s.handleGenerate)
	v1.GET("/jobs", s.handleListJobs)
	v1.GET("/jobs/:id", s.handleGetJob)
	v1.DELETE("/jobs/:id", s.handleDeleteJob)
	v1.GET("/jobs/:id/ws", s.handleJobStream)
}

// requestLogger logs each request and attaches the request ID to its context.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		if id := c.Response().Header().Get(echo.HeaderXRequestID); logging.ValidRequestID(id) {
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		}

		err := next(c)

		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, ServiceInfo{
		Name:    ServiceName,
		Version: s.version,
		Status:  "operational",
		Endpoints: map[string]string{
			"health":        "/health",
			"metrics":       "/metrics",
			"generate_site": "/api/v1/sites/generate",
			"jobs":          "/api/v1/jobs",
			"job_status":    "/api/v1/jobs/{job_id}",
			"job_stream":    "/api/v1/jobs/{job_id}/ws",
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: s.now().UTC(),
		AIMode:    s.aiMode,
		Jobs:      CountByStatus(s.jobs.List()),
	}
	if s.telemetry != nil {
		resp.Telemetry = s.telemetry.Health()
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGenerate(c echo.Context) error {
	ctx := c.Request().Context()

	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(ctx, "invalid generate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in, err := req.Input()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	id := s.jobs.Create()
	if err := s.jobs.Schedule(id, s.workflows(in)); err != nil {
		_ = s.jobs.Delete(id)
		if errors.Is(err, jobs.ErrClosed) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "server is shutting down")
		}
		s.logger.Error(ctx, "failed to schedule job", zap.String("job_id", id), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to schedule job")
	}

	s.logger.Info(logging.WithJobID(ctx, id), "site generation job created",
		zap.String("business_name", in.BusinessName),
		zap.Bool("deploy", in.Hosting != nil))

	return c.JSON(http.StatusOK, GenerateResponse{
		JobID:   id,
		Status:  jobs.StatusQueued,
		Message: "Site generation job started. Use job_id to check status.",
	})
}

func (s *Server) handleGetJob(c echo.Context) error {
	job, err := s.jobs.Get(c.Param("id"))
	if err != nil {
		return jobError(err)
	}
	return c.JSON(http.StatusOK, job)
}

func (s *Server) handleListJobs(c echo.Context) error {
	list := s.jobs.List()
	return c.JSON(http.StatusOK, JobListResponse{
		Total: len(list),
		Jobs:  summaries(list),
	})
}

func (s *Server) handleDeleteJob(c echo.Context) error {
	if err := s.jobs.Delete(c.Param("id")); err != nil {
		return jobError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Job deleted successfully"})
}

func jobError(err error) error {
	if errors.Is(err, jobs.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "Job not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start serves until ctx is cancelled, then shuts down within the configured
// shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting http server", zap.String("addr", s.Addr()))
		if err := s.echo.Start(s.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}
