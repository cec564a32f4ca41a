package main

import (
	"fmt"
	"os"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
	emailsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/email"
	logsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/logger"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database"
	sqlxrepos "github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	defer logger.Close()

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	// set up services
	core.ParseEmailTemplates(logger)
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	perfil.InitValidators(validate, translator)
	perfil.LoadCommonPasswords(logger)

	perfilRepo := sqlxrepos.NewPerfilRepository(db)
	cursoSvc := curso.NewService(sqlxrepos.NewCursoRepository(db), validate)

	// start CLI
	cli := commandLine{
		db:            db,
		perfilRepo:    perfilRepo,
		perfilSvc:     perfil.NewService(perfilRepo, emailsvc.NewConsoleService(conf, logger), validate, logger, conf),
		cursoSvc:      cursoSvc,
		disciplinaSvc: disciplina.NewService(sqlxrepos.NewDisciplinaRepository(db), cursoSvc, validate),
		out:           os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("admin: %v", err), err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		logger.Close()
		os.Exit(1)
	}
}
