package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

// apiDeps is what the API process takes from the container.
type apiDeps struct {
	dig.In

	Conf     *core.Config
	Logger   core.Logger
	DBLogger core.Logger `name:"dbLogger"`
	DB       *sqlx.DB    // nil on the memory engine
	Server   *echoapi.Server
}

// lifecycle is the part of the API server that run drives.
type lifecycle interface {
	Errors() <-chan error
	ShutdownSignal() <-chan os.Signal
	Shutdown(ctx context.Context) error
	Close() error
}

// run serves the API until a shutdown signal or a fatal server error.
// Deferred cleanup runs in both cases.
func run(deps apiDeps) error {
	logger := deps.Logger
	logger.Info(fmt.Sprintf("API %q starting on %s (%s engine)", deps.Conf.Build, deps.Conf.Server.Addr, deps.Conf.Database.Engine))
	defer closeLogger(logger)
	defer logger.Info("API stopped")

	core.ParseEmailTemplates(logger)
	perfil.LoadCommonPasswords(logger)

	if deps.DB != nil {
		defer func() {
			if err := deps.DB.Close(); err != nil {
				deps.DBLogger.Error("closing database", err)
			}
		}()
	}

	go serveDebug(deps.Conf, logger)
	go deps.Server.Start()

	return awaitShutdown(deps.Server, deps.Conf.Server.ShutdownTimeout, logger)
}

// serveDebug exposes pprof and expvar on the debug address.
func serveDebug(conf *core.Config, logger core.Logger) {
	vars := expvar.NewMap("api")
	vars.Set("build", stringVar(conf.Build))
	vars.Set("env", stringVar(conf.Env))
	vars.Set("dbEngine", stringVar(conf.Database.Engine))

	if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
		logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
	}
}

func stringVar(s string) *expvar.String {
	v := new(expvar.String)
	v.Set(s)
	return v
}

// awaitShutdown blocks until srv fails or is asked to stop. A stop drains
// requests for up to timeout and then forces the listener closed.
func awaitShutdown(srv lifecycle, timeout time.Duration, logger core.Logger) error {
	select {
	case err := <-srv.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-srv.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: shutting down", sig))

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
			if err := srv.Close(); err != nil {
				return errors.Wrap(err, "forcing server close")
			}
		}
		return nil
	}
}

// closeLogger flushes loggers that buffer their entries.
func closeLogger(logger core.Logger) {
	if l, ok := logger.(interface{ Close() }); ok {
		l.Close()
	}
}
