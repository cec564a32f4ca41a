package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/apiclient"
	echoweb "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	logsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/logger"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database"
)

const sessionStoreSQLite = "sqlite"

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("frontend"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	logger.Info(fmt.Sprintf("Frontend initializing : version %q", conf.Build))
	defer logger.Info("Frontend stopped")

	// =========================================================================
	// Sessions

	var store session.Store = session.NewMemoryStore()
	if conf.Frontend.SessionStore == sessionStoreSQLite {
		db, err := openSessionsDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening sessions database: %v", err), err)
		}
		defer func() { _ = db.Close() }()

		sqlStore := session.NewSQLStore(db)
		store = sqlStore

		purgeCtx, stopPurge := context.WithCancel(context.Background())
		defer stopPurge()
		go purgeExpiredSessions(purgeCtx, sqlStore, logger)
	}

	// =========================================================================
	// Start Frontend Service

	server, err := echoweb.NewServer(echoweb.ServerDeps{
		Conf:   conf,
		Logger: logger,
		Store:  store,
		Client: apiclient.New(conf),
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

	logger.Info(fmt.Sprintf("Frontend listening on %s", conf.Frontend.Addr))
	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func openSessionsDB(conf *core.Config) (*sqlx.DB, error) {
	db, err := database.OpenSQLite(conf.Frontend.SessionPath)
	if err != nil {
		return nil, err
	}
	if err = database.MigrateSessions(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

type expiredSessionsDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// purgeExpiredSessions deletes expired sessions every hour until ctx is done.
func purgeExpiredSessions(ctx context.Context, store expiredSessionsDeleter, logger core.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx)
			if err != nil {
				logger.Error(fmt.Sprintf("purging sessions: %v", err), err)
				continue
			}
			logger.Debug(fmt.Sprintf("purged %d expired sessions", n))
		}
	}
}
