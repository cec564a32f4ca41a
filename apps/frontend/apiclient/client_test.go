package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
	emailsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/email"
	logsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/logger"
	sqlxrepos "github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database/sqlx"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/tests"
)

const testPassword = "Tr0ub4dor&3x"

type fixture struct {
	conf       *core.Config
	client     *Client
	perfilRepo perfil.Repository
	cursoRepo  curso.Repository
	discRepo   disciplina.Repository
	calls      int32
	refreshes  int32
}

func setup(t *testing.T) *fixture {
	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)

	db := testutil.OpenDB()
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		conf:       conf,
		perfilRepo: sqlxrepos.NewPerfilRepository(db),
		cursoRepo:  sqlxrepos.NewCursoRepository(db),
		discRepo:   sqlxrepos.NewDisciplinaRepository(db),
	}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	perfil.InitValidators(validate, translator)
	cursoSvc := curso.NewService(f.cursoRepo, validate)

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		PerfilSvc:     perfil.NewServiceMock(f.perfilRepo, emailsvc.NewConsoleServiceMock(conf, logger), validate, logger, conf),
		CursoSvc:      cursoSvc,
		DisciplinaSvc: disciplina.NewService(f.discRepo, cursoSvc, validate),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.calls, 1)
		if r.URL.Path == "/api/auth/token/refresh" {
			atomic.AddInt32(&f.refreshes, 1)
		}
		app.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	conf.Frontend.InternalAPIBaseURL = srv.URL + "/api/"
	f.client = New(conf)
	return f
}

func (f *fixture) reset() {
	atomic.StoreInt32(&f.calls, 0)
	atomic.StoreInt32(&f.refreshes, 0)
}

func TestClient_ObtainToken(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)

	t.Run("invalid credentials", func(t *testing.T) {
		_, err := f.client.ObtainToken(ctx, "ana@example.com", "lol")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
		apiErr := err.(*Error)
		assert.Equal(t, "Nenhuma conta ativa encontrada com as credenciais fornecidas", apiErr.Message())
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.client.ObtainToken(ctx, "", "")
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, StatusCode(err))
		assert.Contains(t, err.(*Error).Messages(), "email")
	})

	t.Run("success", func(t *testing.T) {
		tokens, err := f.client.ObtainToken(ctx, "ANA@example.com", testPassword)
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.Access)
		assert.NotEmpty(t, tokens.Refresh)

		me, err := f.client.Session(&tokens).Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", me.Email)
		assert.Equal(t, perfil.TipoGerente, me.Tipo)
	})
}

func TestSessionClient_refresh(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)
	pair, err := echoapi.GenerateTokenPair(f.conf, ana)
	require.NoError(t, err)

	t.Run("stale access token", func(t *testing.T) {
		tokens := &Tokens{Access: "stale", Refresh: pair.Refresh}
		f.reset()

		me, err := f.client.Session(tokens).Me(ctx)
		require.NoError(t, err)
		assert.Equal(t, ana.ID, me.ID)
		assert.NotEqual(t, "stale", tokens.Access)
		assert.EqualValues(t, 3, atomic.LoadInt32(&f.calls))
		assert.EqualValues(t, 1, atomic.LoadInt32(&f.refreshes))

		// the refreshed token is reused
		f.reset()
		_, err = f.client.Session(tokens).Me(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, atomic.LoadInt32(&f.calls))
	})

	t.Run("invalid refresh token", func(t *testing.T) {
		tokens := &Tokens{Access: "stale", Refresh: "stale"}
		_, err := f.client.Session(tokens).Me(ctx)
		assert.Equal(t, ErrSessionExpired, err)
	})

	t.Run("no refresh token", func(t *testing.T) {
		_, err := f.client.Session(&Tokens{}).Me(ctx)
		assert.Equal(t, ErrSessionExpired, err)
	})

	t.Run("concurrent requests refresh once", func(t *testing.T) {
		c := testutil.CreateCurso(t, f.cursoRepo, "ADS", "Análise", 100, true)
		tokens := &Tokens{Access: "stale", Refresh: pair.Refresh}
		f.reset()

		page, err := f.client.Session(tokens).GetCursoPage(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "ADS", page.Curso.Codigo)
		assert.Empty(t, page.Disciplinas)
		assert.EqualValues(t, 1, atomic.LoadInt32(&f.refreshes))
	})
}

func TestSessionClient_resources(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	ana := testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)
	bruno := testutil.CreatePerfil(t, f.perfilRepo, "Bruno", perfil.TipoProfessor, "bruno@example.com", testPassword, true)

	pair, err := echoapi.GenerateTokenPair(f.conf, ana)
	require.NoError(t, err)
	sc := f.client.Session(&Tokens{Access: pair.Access, Refresh: pair.Refresh})

	c, err := sc.CreateCurso(ctx, curso.NewCurso{Codigo: "ADS", Nome: "Análise", CargaHorariaTotal: 100})
	require.NoError(t, err)
	assert.True(t, c.Ativo)

	_, err = sc.CreateCurso(ctx, curso.NewCurso{Codigo: "ADS", Nome: "Outro", CargaHorariaTotal: 100})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
	assert.Contains(t, err.(*Error).Messages(), "codigo")

	assert.Equal(t, curso.Resumo{}, c.Resumo)

	d, err := sc.CreateDisciplina(ctx, disciplina.NewDisciplina{Codigo: "BD", Nome: "Banco", CargaHoraria: 60, CursoID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, c.ID, d.CursoDetalhes.ID)
	assert.Equal(t, "ADS", d.CursoDetalhes.Codigo)
	_, err = sc.CreateDisciplina(ctx, disciplina.NewDisciplina{Codigo: "WEB", Nome: "Web", CargaHoraria: 60, CursoID: c.ID})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))

	page, err := sc.GetCursoPage(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, curso.Resumo{TotalDisciplinasAtivas: 1, SomaCargaHorariaDisciplinasAtivas: 60}, page.Curso.Resumo)
	require.Len(t, page.Disciplinas, 1)
	assert.Equal(t, "BD", page.Disciplinas[0].Codigo)

	detalhe, err := sc.UpdateCurso(ctx, c.ID, curso.UpdateCurso{Nome: "Análise e Desenvolvimento", Ativo: core.BoolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "Análise e Desenvolvimento", detalhe.Nome)
	assert.False(t, detalhe.Ativo)

	cursos, err := sc.ListCursos(ctx)
	require.NoError(t, err)
	require.Len(t, cursos, 1)

	_, err = sc.GetCurso(ctx, core.NewID())
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	perfis, err := sc.ListPerfis(ctx)
	require.NoError(t, err)
	assert.Len(t, perfis, 2)

	p, err := sc.SetPerfilAtivo(ctx, bruno.ID, false)
	require.NoError(t, err)
	assert.False(t, p.Ativo)
	p, err = sc.SetPerfilAtivo(ctx, bruno.ID, true)
	require.NoError(t, err)
	assert.True(t, p.Ativo)

	p, err = sc.UpdatePerfil(ctx, bruno.ID, perfil.UpdatePerfil{Nome: "Bruno Lima"})
	require.NoError(t, err)
	assert.Equal(t, "Bruno Lima", p.Nome)
	assert.Equal(t, bruno.Codigo, p.Codigo)

	p, err = sc.CreatePerfil(ctx, perfil.NewPerfil{Nome: "Carla", Tipo: perfil.TipoProfessor, Email: "carla@example.com", Password: testPassword})
	require.NoError(t, err)
	_, _, ok := perfil.ParseCodigo(p.Codigo)
	assert.True(t, ok)

	// professors cannot manage cursos
	pair, err = echoapi.GenerateTokenPair(f.conf, bruno)
	require.NoError(t, err)
	_, err = f.client.Session(&Tokens{Access: pair.Access}).ListCursos(ctx)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
}
