package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/apiclient"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

const csrfField = "csrfmiddlewaretoken"

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Store          session.Store
		Client         *apiclient.Client
		DisableReqLogs bool
	}

	Server struct {
		app      *echo.Echo
		deps     ServerDeps
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) (*Server, error) {
	renderer, err := newRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		app:      echo.New(),
		deps:     deps,
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.app.Renderer = renderer
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !(s.deps.DisableReqLogs || conf.TestMode) {
		s.app.Use(middleware.Logger())
	}
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))
	s.app.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:" + csrfField,
		CookieName:     "csrftoken",
		CookiePath:     "/",
		CookieSecure:   conf.Frontend.SecureCookie,
		CookieHTTPOnly: true,
	}))
	s.app.Use(newSessionMiddleware(s.deps.Store, conf))

	s.app.HTTPErrorHandler = newWebHTTPErrorHandler(conf.AppName, s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug && !conf.TestMode

	v := &views{client: s.deps.Client, conf: conf, logger: s.deps.Logger, store: s.deps.Store}
	authed := v.requirePerfil("")
	detailAuthed := v.requirePerfil("Você precisa estar logado para ver os detalhes do curso.")

	s.app.GET("/login", v.loginForm)
	s.app.POST("/login", v.login)
	s.app.GET("/logout", v.logout)
	s.app.POST("/logout", v.logout)
	s.app.GET("/password-reset", v.passwordResetForm)
	s.app.POST("/password-reset", v.passwordReset)
	s.app.GET("/password-reset/:uid/:token", v.passwordResetConfirmForm)
	s.app.POST("/password-reset/:uid/:token", v.passwordResetConfirm)

	s.app.GET("/", v.home, authed)

	cg := s.app.Group("/cursos", authed)
	cg.GET("", v.cursos)
	cg.POST("/add", v.addCurso)
	cg.POST("/:id/edit", v.editCurso)
	s.app.GET("/cursos/:id", v.cursoDetail, detailAuthed)
	s.app.POST("/cursos/:id", v.addDisciplina, detailAuthed)

	pg := s.app.Group("/perfis", authed)
	pg.GET("", v.perfis)
	pg.POST("/add", v.addPerfil)
	pg.POST("/:id/edit", v.editPerfil)
	pg.POST("/:id/toggle", v.togglePerfil)
}

// Start listens on the configured frontend address. Errors other than a regular shutdown are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Frontend.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}
