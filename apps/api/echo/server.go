package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/csnedu/appointments/core"
	"github.com/csnedu/appointments/core/booking"
	"github.com/csnedu/appointments/core/session"
	"github.com/csnedu/appointments/core/student"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		DB         core.DB
		StudentSvc student.Service
		BookingSvc booking.Service
		Sessions   session.Store
		Metrics    *Metrics // optional
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		ServerDeps
		app      *echo.Echo
		renderer *templateRenderer
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) (Server, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "parsing web templates")
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	s := &server{
		ServerDeps: deps,
		app:        echo.New(),
		renderer:   renderer,
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s, nil
}

func (s *server) setup() {
	conf := s.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Renderer = s.renderer
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.renderer, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.Metrics.middleware())
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	s.app.GET("/healthz", s.health)
	s.app.GET("/metrics", echo.WrapHandler(s.Metrics.handler()))

	pages := s.app.Group("", sessionMiddleware(s.Sessions, conf, s.Logger))
	auth := requireLogin(s.StudentSvc)

	pages.GET("/", s.renderer.static("home", "Welcome"))
	pages.GET("/reservation", s.renderer.static("reservation", "Reservations"))

	registerStudentAPI(pages, s.ServerDeps, s.renderer, newRateLimiter(conf.Server.RateLimitPerMinute))
	registerBookingAPI(pages, auth, s.ServerDeps, s.renderer)
}

func (s *server) Start() {
	if err := s.app.Start(s.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) health(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	code := http.StatusOK
	status := echo.Map{"status": "ok", "database": "ok", "sessions": "ok"}

	if err := s.DB.PingContext(reqCtx); err != nil {
		s.Logger.Error("health: database unavailable", errors.Wrap(err, "pinging database"))
		code, status["status"], status["database"] = http.StatusServiceUnavailable, "unavailable", "unavailable"
	}
	if err := s.Sessions.Ping(reqCtx); err != nil {
		s.Logger.Error("health: session store unavailable", err)
		code, status["status"], status["sessions"] = http.StatusServiceUnavailable, "unavailable", "unavailable"
	}
	return ctx.JSON(code, status)
}
