package dig_container

import (
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
	emailsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/email"
	logsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/logger"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database"
	inmemdb "github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database/inmem"
	sqlxrepos "github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Repositories are provided together since they all depend on the configured engine.
type Repositories struct {
	dig.Out
	Perfil     perfil.Repository
	Curso      curso.Repository
	Disciplina disciplina.Repository
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	PerfilSvc     perfil.ServiceInterface
	CursoSvc      curso.ServiceInterface
	DisciplinaSvc disciplina.ServiceInterface
}

func newZapLogger(conf *core.Config) (*zap.Logger, error) {
	return logsvc.NewZapLogger(conf)
}

func newLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(zl *zap.Logger, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

// newDB returns a nil *sqlx.DB for the memory engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == database.Memory {
		return nil
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(conf *core.Config, db *sqlx.DB) Repositories {
	if conf.Database.Engine == database.Memory {
		mem := inmemdb.Open()
		return Repositories{
			Perfil:     inmemdb.NewPerfilRepository(mem),
			Curso:      inmemdb.NewCursoRepository(mem),
			Disciplina: inmemdb.NewDisciplinaRepository(mem),
		}
	}
	return Repositories{
		Perfil:     sqlxrepos.NewPerfilRepository(db),
		Curso:      sqlxrepos.NewCursoRepository(db),
		Disciplina: sqlxrepos.NewDisciplinaRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := core.NewValidator(translator)
	perfil.InitValidators(validate, translator)
	return validate
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		PerfilSvc:     p.PerfilSvc,
		CursoSvc:      p.CursoSvc,
		DisciplinaSvc: p.DisciplinaSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newZapLogger))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(perfil.NewService, dig.As(new(perfil.ServiceInterface))))
	must(c.Provide(curso.NewService, dig.As(new(curso.ServiceInterface), new(disciplina.CursoService))))
	must(c.Provide(disciplina.NewService, dig.As(new(disciplina.ServiceInterface))))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
