package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database"
)

// NewConfig returns a configuration fit for tests, without reading the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Env:                       "TEST",
		AppName:                   "Unifip Acadêmico",
		TestMode:                  true,
		SecretKey:                 "secret",
		DefaultFromEmail:          "Unifip Acadêmico <noreply@localhost>",
		FrontendBaseURL:           "http://localhost:8001",
		JWTExpirationDelta:        30 * time.Minute,
		JWTRefreshExpirationDelta: 24 * time.Hour,
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Database:                  core.DatabaseConfig{Engine: database.SQLite, Path: ":memory:"},
		Frontend: core.FrontendConfig{
			APIBaseURL:    "http://localhost:8000/api",
			APITimeout:    5 * time.Second,
			SessionStore:  "memory",
			SessionMaxAge: time.Hour,
		},
		RateLimit: core.RateLimitConfig{AuthPerMinute: 600, AuthBurst: 100},
	}
}

// NewValidator returns a validator with every domain validation registered.
func NewValidator() *validator.Validate {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	perfil.InitValidators(validate, translator)
	return validate
}

// OpenDB opens a migrated in-memory SQLite database. It panics on failure since it runs from TestMain.
func OpenDB() *sqlx.DB {
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		panic(err)
	}
	if err = database.Migrate(db); err != nil {
		panic(err)
	}
	return db
}

// ResetDB empties every table of db.
func ResetDB(t *testing.T, db *sqlx.DB) {
	for _, table := range []string{"disciplinas", "cursos", "perfis", "perfil_sequencias"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("ResetDB(): %v", err)
		}
	}
}

func CreatePerfil(t *testing.T, repo perfil.Repository, nome, tipo, email, pwd string, ativo bool) perfil.Perfil {
	ctx := context.Background()
	now := time.Now().UTC()
	seq, err := repo.NextCodigoSeq(ctx, now.Year())
	if err != nil {
		t.Fatalf("CreatePerfil(): %v", err)
	}
	p := perfil.Perfil{
		ID:         core.NewID(),
		Codigo:     perfil.FormatCodigo(now.Year(), seq),
		Nome:       nome,
		Tipo:       tipo,
		Email:      email,
		Ativo:      ativo,
		DateJoined: now,
	}
	if pwd != "" {
		if err := p.SetPassword(pwd); err != nil {
			t.Fatalf("CreatePerfil(): %v", err)
		}
	}
	p, err = repo.CreatePerfil(ctx, p)
	if err != nil {
		t.Fatalf("CreatePerfil(): %v", err)
	}
	return p
}

func CreateCurso(t *testing.T, repo curso.Repository, codigo, nome string, cargaHorariaTotal int, ativo bool) curso.Curso {
	c, err := repo.CreateCurso(context.Background(), curso.Curso{
		ID:                core.NewID(),
		Codigo:            codigo,
		Nome:              nome,
		CargaHorariaTotal: cargaHorariaTotal,
		Ativo:             ativo,
	})
	if err != nil {
		t.Fatalf("CreateCurso(): %v", err)
	}
	return c
}

func CreateDisciplina(t *testing.T, repo disciplina.Repository, cursoID, codigo, nome string, cargaHoraria int, ativo bool) disciplina.Disciplina {
	d, err := repo.CreateDisciplina(context.Background(), disciplina.Disciplina{
		ID:           core.NewID(),
		Codigo:       codigo,
		Nome:         nome,
		CargaHoraria: cargaHoraria,
		CursoID:      cursoID,
		Ativo:        ativo,
	})
	if err != nil {
		t.Fatalf("CreateDisciplina(): %v", err)
	}
	return d
}
