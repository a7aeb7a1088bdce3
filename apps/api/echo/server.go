// Package echoapi exposes the bursar services over HTTP with echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/exam"
	"github.com/trezcool/bursar/core/familyfee"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/salary"
	"github.com/trezcool/bursar/core/school"
)

type Options struct {
	Conf           *core.Config
	Logger         core.Logger
	DisableReqLogs bool

	SchoolSvc    *school.Service
	FeeSvc       *fee.Service
	FamilyFeeSvc *familyfee.Service
	SalarySvc    *salary.Service
	FinanceSvc   *finance.Service
	ExamSvc      *exam.Service
}

type Server struct {
	opts     *Options
	app      *echo.Echo
	registry *prometheus.Registry
	shutdown chan os.Signal
}

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		registry: prometheus.NewRegistry(),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.opts.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metricsMiddleware(s.registry))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.SignalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", health)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	api := s.app.Group("/api", middleware.JWTWithConfig(jwtConfig(conf)), actorMiddleware)
	registerSchoolAPI(api, s.opts.SchoolSvc)
	registerFeeAPI(api, s.opts.FeeSvc)
	registerFamilyFeeAPI(api, s.opts.FamilyFeeSvc)
	registerSalaryAPI(api, s.opts.SalarySvc)
	registerFinanceAPI(api, s.opts.FinanceSvc)
	registerExamAPI(api, s.opts.ExamSvc)
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	if err := s.app.Start(s.opts.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "starting API server")
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

// ShutdownSignal receives the OS signals the server was notified of, and internal shutdown requests.
func (s *Server) ShutdownSignal() chan os.Signal {
	return s.shutdown
}

// SignalShutdown requests a graceful shutdown.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already requested
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.Conf.AppName+" API!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
