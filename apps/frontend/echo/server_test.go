package echoweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/apiclient"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
	emailsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/email"
	logsvc "github.com/ViictorDantas/Prova-Tecnica-Unifip/services/logger"
	sqlxrepos "github.com/ViictorDantas/Prova-Tecnica-Unifip/storage/database/sqlx"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/tests"
)

const (
	testPassword = "Tr0ub4dor&3x"
	testCSRF     = "csrf-test-token"
)

type fixture struct {
	web            *Server
	store          session.Store
	perfilRepo     perfil.Repository
	cursoRepo      curso.Repository
	disciplinaRepo disciplina.Repository
}

func setup(t *testing.T) *fixture {
	conf := testutil.NewConfig()
	logger := logsvc.NewRollbarLogger(zap.NewNop(), conf)

	db := testutil.OpenDB()
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		store:          session.NewMemoryStore(),
		perfilRepo:     sqlxrepos.NewPerfilRepository(db),
		cursoRepo:      sqlxrepos.NewCursoRepository(db),
		disciplinaRepo: sqlxrepos.NewDisciplinaRepository(db),
	}

	validate := testutil.NewValidator()
	cursoSvc := curso.NewService(f.cursoRepo, validate)
	api := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    core.NewTranslator(),
		PerfilSvc:     perfil.NewServiceMock(f.perfilRepo, emailsvc.NewConsoleServiceMock(conf, logger), validate, logger, conf),
		CursoSvc:      cursoSvc,
		DisciplinaSvc: disciplina.NewService(f.disciplinaRepo, cursoSvc, validate),
	})
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)
	conf.Frontend.InternalAPIBaseURL = apiSrv.URL + "/api"

	web, err := NewServer(ServerDeps{
		Conf:   conf,
		Logger: logger,
		Store:  f.store,
		Client: apiclient.New(conf),
	})
	require.NoError(t, err)
	f.web = web
	return f
}

// browser keeps the cookies set by the frontend between requests.
type browser struct {
	t       *testing.T
	web     *Server
	cookies map[string]*http.Cookie
}

func (f *fixture) browser(t *testing.T) *browser {
	return &browser{t: t, web: f.web, cookies: make(map[string]*http.Cookie)}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.web.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits form along with a valid CSRF token.
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.postWithToken(path, form, testCSRF)
}

func (b *browser) postWithToken(path string, form url.Values, token string) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	form.Set(csrfField, token)
	b.cookies["csrftoken"] = &http.Cookie{Name: "csrftoken", Value: testCSRF}

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// follow checks rec redirects to location, then fetches it.
func (b *browser) follow(rec *httptest.ResponseRecorder, location string) *httptest.ResponseRecorder {
	b.t.Helper()
	require.Equal(b.t, http.StatusFound, rec.Code, rec.Body.String())
	require.Equal(b.t, location, rec.Header().Get("Location"))
	return b.get(location)
}

func (b *browser) login(email string) {
	b.t.Helper()
	rec := b.post("/login", url.Values{"email": {email}, "password": {testPassword}})
	body := b.follow(rec, "/").Body.String()
	require.Contains(b.t, body, "Login realizado com sucesso!")
}

func (b *browser) sessionID() string {
	if c, ok := b.cookies[sessionCookie]; ok {
		return c.Value
	}
	return ""
}

func TestLogin(t *testing.T) {
	f := setup(t)
	testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)
	testutil.CreatePerfil(t, f.perfilRepo, "Bruno", perfil.TipoProfessor, "bruno@example.com", testPassword, false)

	t.Run("anonymous visitors are sent to login", func(t *testing.T) {
		b := f.browser(t)
		rec := b.follow(b.get("/"), "/login")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="`+csrfField+`"`)
	})

	t.Run("missing fields", func(t *testing.T) {
		b := f.browser(t)
		rec := b.post("/login", url.Values{"email": {"ana@example.com"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email e senha são obrigatórios.")
	})

	t.Run("wrong password", func(t *testing.T) {
		b := f.browser(t)
		rec := b.post("/login", url.Values{"email": {"ana@example.com"}, "password": {"lol"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Email ou senha incorretos, tente novamente.")
	})

	t.Run("inactive perfil", func(t *testing.T) {
		b := f.browser(t)
		rec := b.post("/login", url.Values{"email": {"bruno@example.com"}, "password": {testPassword}})
		assert.Contains(t, rec.Body.String(), "Email ou senha incorretos, tente novamente.")
	})

	t.Run("missing CSRF token", func(t *testing.T) {
		b := f.browser(t)
		rec := b.postWithToken("/login", url.Values{"email": {"ana@example.com"}, "password": {testPassword}}, "lol")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("login and logout", func(t *testing.T) {
		b := f.browser(t)
		b.get("/login")
		anonymousID := b.sessionID()
		require.NotEmpty(t, anonymousID)

		b.login("ana@example.com")
		assert.NotEqual(t, anonymousID, b.sessionID())
		_, err := f.store.Get(context.Background(), anonymousID)
		assert.Equal(t, session.ErrNotFound, err)

		rec := b.get("/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Bem-vindo, Ana")
		assert.Contains(t, rec.Body.String(), "Gerenciar perfis")

		// logged in visitors skip the login page
		b.follow(b.get("/login"), "/")

		rec = b.follow(b.post("/logout", nil), "/login")
		assert.Contains(t, rec.Body.String(), "Logout realizado com sucesso!")
		b.follow(b.get("/"), "/login")
	})

	t.Run("flashes are shown once", func(t *testing.T) {
		b := f.browser(t)
		b.login("ana@example.com")
		assert.NotContains(t, b.get("/").Body.String(), "Login realizado com sucesso!")
	})
}

func TestSessionExpired(t *testing.T) {
	f := setup(t)
	testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)
	ctx := context.Background()

	b := f.browser(t)
	b.login("ana@example.com")

	t.Run("stale access token is refreshed", func(t *testing.T) {
		sess, err := f.store.Get(ctx, b.sessionID())
		require.NoError(t, err)
		sess.Access = "stale"
		require.NoError(t, f.store.Save(ctx, sess))

		assert.Equal(t, http.StatusOK, b.get("/").Code)
		sess, err = f.store.Get(ctx, b.sessionID())
		require.NoError(t, err)
		assert.NotEqual(t, "stale", sess.Access)
	})

	t.Run("invalid refresh token logs out", func(t *testing.T) {
		sess, err := f.store.Get(ctx, b.sessionID())
		require.NoError(t, err)
		sess.Access, sess.Refresh = "stale", "stale"
		require.NoError(t, f.store.Save(ctx, sess))

		rec := b.follow(b.get("/cursos"), "/login")
		assert.Contains(t, rec.Body.String(), msgSessionExpired)
		sess, err = f.store.Get(ctx, b.sessionID())
		require.NoError(t, err)
		assert.False(t, sess.IsAuthenticated())
	})
}

func TestCursos(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)
	testutil.CreatePerfil(t, f.perfilRepo, "Bruno", perfil.TipoProfessor, "bruno@example.com", testPassword, true)

	gerente := f.browser(t)
	gerente.login("ana@example.com")

	t.Run("add: missing fields", func(t *testing.T) {
		rec := gerente.follow(gerente.post("/cursos/add", url.Values{"codigo": {"ADS"}}), "/cursos")
		assert.Contains(t, rec.Body.String(), msgTodosCampos)
	})

	t.Run("add: invalid carga horaria", func(t *testing.T) {
		form := url.Values{"codigo": {"ADS"}, "nome": {"Análise"}, "carga_horaria_total": {"muitas"}}
		rec := gerente.follow(gerente.post("/cursos/add", form), "/cursos")
		assert.Contains(t, rec.Body.String(), msgCargaHoraria)
	})

	t.Run("add", func(t *testing.T) {
		form := url.Values{"codigo": {"ADS"}, "nome": {"Análise"}, "descricao": {"Tecnólogo"}, "carga_horaria_total": {"100"}}
		rec := gerente.follow(gerente.post("/cursos/add", form), "/cursos")
		body := rec.Body.String()
		assert.Contains(t, body, "Curso adicionado com sucesso!")
		assert.Contains(t, body, "Análise")
	})

	t.Run("add: codigo taken", func(t *testing.T) {
		form := url.Values{"codigo": {"ADS"}, "nome": {"Outro"}, "carga_horaria_total": {"100"}}
		rec := gerente.follow(gerente.post("/cursos/add", form), "/cursos")
		assert.Contains(t, rec.Body.String(), "Erro ao adicionar curso: 400")
	})

	cursos, err := f.cursoRepo.QueryCursos(ctx, curso.QueryFilter{Codigo: "ADS"})
	require.NoError(t, err)
	require.Len(t, cursos, 1)
	ads := cursos[0]
	detail := "/cursos/" + ads.ID

	t.Run("detail: add disciplina", func(t *testing.T) {
		rec := gerente.follow(gerente.post(detail, url.Values{"nome": {"Banco"}}), detail)
		assert.Contains(t, rec.Body.String(), "Todos os campos da disciplina são obrigatórios.")

		form := url.Values{"nome": {"Banco de Dados"}, "codigo": {"BD"}, "carga_horaria": {"60"}}
		rec = gerente.follow(gerente.post(detail, form), detail)
		body := rec.Body.String()
		assert.Contains(t, body, "Disciplina adicionada com sucesso!")
		assert.Contains(t, body, "Banco de Dados")
		assert.Contains(t, body, "Carga horária das disciplinas ativas: 60h")

		form = url.Values{"nome": {"Web"}, "codigo": {"WEB"}, "carga_horaria": {"41"}}
		rec = gerente.follow(gerente.post(detail, form), detail)
		assert.Contains(t, rec.Body.String(), "Erro ao adicionar disciplina: 400")
	})

	t.Run("detail: not found", func(t *testing.T) {
		rec := gerente.follow(gerente.get("/cursos/"+core.NewID()), "/")
		assert.Contains(t, rec.Body.String(), msgCursoNotFound)
	})

	t.Run("edit", func(t *testing.T) {
		form := url.Values{"codigo": {"ADS"}, "nome": {"Análise e Desenvolvimento"}, "carga_horaria_total": {"120"}}
		rec := gerente.follow(gerente.post("/cursos/"+ads.ID+"/edit", form), "/cursos")
		assert.Contains(t, rec.Body.String(), "Curso atualizado com sucesso!")

		// unchecked ativo deactivates
		c, err := f.cursoRepo.GetCurso(ctx, ads.ID)
		require.NoError(t, err)
		assert.Equal(t, "Análise e Desenvolvimento", c.Nome)
		assert.Equal(t, 120, c.CargaHorariaTotal)
		assert.False(t, c.Ativo)

		form.Set("ativo", "on")
		form.Set("carga_horaria_total", "50")
		rec = gerente.follow(gerente.post("/cursos/"+ads.ID+"/edit", form), "/cursos")
		assert.Contains(t, rec.Body.String(), "Erro ao atualizar curso: 400")
	})

	t.Run("professor", func(t *testing.T) {
		professor := f.browser(t)
		professor.login("bruno@example.com")
		assert.NotContains(t, professor.get("/").Body.String(), "Gerenciar perfis")

		rec := professor.follow(professor.get("/cursos"), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para acessar os cursos.")

		form := url.Values{"codigo": {"SI"}, "nome": {"Sistemas"}, "carga_horaria_total": {"100"}}
		rec = professor.follow(professor.post("/cursos/add", form), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para adicionar cursos.")

		form.Set("carga_horaria_total", "1")
		rec = professor.follow(professor.post("/cursos/"+ads.ID+"/edit", form), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para editar cursos.")

		rec = professor.follow(professor.get(detail), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para acessar este curso.")
	})

	t.Run("anonymous detail", func(t *testing.T) {
		b := f.browser(t)
		rec := b.follow(b.get(detail), "/login")
		assert.Contains(t, rec.Body.String(), "Você precisa estar logado para ver os detalhes do curso.")
	})
}

func TestPerfis(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)
	bruno := testutil.CreatePerfil(t, f.perfilRepo, "Bruno", perfil.TipoProfessor, "bruno@example.com", testPassword, true)

	gerente := f.browser(t)
	gerente.login("ana@example.com")

	t.Run("list", func(t *testing.T) {
		rec := gerente.get("/perfis")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), bruno.Codigo)
	})

	t.Run("add", func(t *testing.T) {
		rec := gerente.follow(gerente.post("/perfis/add", url.Values{"nome": {"Carla"}}), "/perfis")
		assert.Contains(t, rec.Body.String(), msgTodosCampos)

		form := url.Values{"nome": {"Carla"}, "email": {"carla@example.com"}, "password": {testPassword}, "tipo": {perfil.TipoProfessor}}
		rec = gerente.follow(gerente.post("/perfis/add", form), "/perfis")
		assert.Contains(t, rec.Body.String(), "Perfil adicionado com sucesso!")
		assert.Contains(t, rec.Body.String(), "carla@example.com")

		rec = gerente.follow(gerente.post("/perfis/add", form), "/perfis")
		assert.Contains(t, rec.Body.String(), "Erro ao adicionar perfil: 400")
	})

	t.Run("edit", func(t *testing.T) {
		form := url.Values{"nome": {"Bruno Lima"}, "email": {bruno.Email}, "tipo": {perfil.TipoProfessor}, "ativo": {"on"}}
		rec := gerente.follow(gerente.post("/perfis/"+bruno.ID+"/edit", form), "/perfis")
		assert.Contains(t, rec.Body.String(), "Perfil atualizado com sucesso!")

		p, err := f.perfilRepo.GetPerfil(ctx, perfil.GetFilter{ID: bruno.ID})
		require.NoError(t, err)
		assert.Equal(t, "Bruno Lima", p.Nome)
		assert.True(t, p.Ativo)
		assert.Equal(t, bruno.Codigo, p.Codigo)
	})

	t.Run("toggle", func(t *testing.T) {
		rec := gerente.follow(gerente.post("/perfis/"+bruno.ID+"/toggle", url.Values{"ativo": {"false"}}), "/perfis")
		assert.Contains(t, rec.Body.String(), "Perfil inativado com sucesso!")
		p, err := f.perfilRepo.GetPerfil(ctx, perfil.GetFilter{ID: bruno.ID})
		require.NoError(t, err)
		assert.False(t, p.Ativo)

		rec = gerente.follow(gerente.post("/perfis/"+bruno.ID+"/toggle", url.Values{"ativo": {"true"}}), "/perfis")
		assert.Contains(t, rec.Body.String(), "Perfil ativado com sucesso!")

		rec = gerente.follow(gerente.post("/perfis/"+core.NewID()+"/toggle", url.Values{"ativo": {"true"}}), "/perfis")
		assert.Contains(t, rec.Body.String(), "Erro ao alterar status do perfil: 404")
	})

	t.Run("professor", func(t *testing.T) {
		professor := f.browser(t)
		professor.login("bruno@example.com")

		rec := professor.follow(professor.get("/perfis"), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para acessar esta página.")

		rec = professor.follow(professor.post("/perfis/"+bruno.ID+"/toggle", url.Values{"ativo": {"false"}}), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para alterar status de perfis.")

		form := url.Values{"nome": {"Carla"}, "email": {"carla@example.com"}, "tipo": {perfil.TipoProfessor}, "password": {testPassword}}
		rec = professor.follow(professor.post("/perfis/add", form), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para adicionar perfis.")

		rec = professor.follow(professor.post("/perfis/"+bruno.ID+"/edit", form), "/")
		assert.Contains(t, rec.Body.String(), "Você não tem permissão para editar perfis.")

		p, err := f.perfilRepo.GetPerfil(ctx, perfil.GetFilter{ID: bruno.ID})
		require.NoError(t, err)
		assert.True(t, p.Ativo)
	})
}

func TestPasswordReset(t *testing.T) {
	f := setup(t)
	ana := testutil.CreatePerfil(t, f.perfilRepo, "Ana", perfil.TipoGerente, "ana@example.com", testPassword, true)

	b := f.browser(t)
	assert.Equal(t, http.StatusOK, b.get("/password-reset").Code)

	rec := b.follow(b.post("/password-reset", url.Values{"email": {ana.Email}}), "/login")
	assert.Contains(t, rec.Body.String(), "você receberá um link para redefinir sua senha")

	back := "/password-reset/" + perfil.EncodeUID(ana) + "/lol"
	assert.Equal(t, http.StatusOK, b.get(back).Code)

	rec = b.follow(b.post(back, url.Values{"password": {"N0vaSenha!x"}}), back)
	assert.Contains(t, rec.Body.String(), msgTodosCampos)

	rec = b.post(back, url.Values{"password": {"N0vaSenha!x"}, "password_confirm": {"N0vaSenha!x"}})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, back, rec.Header().Get("Location"))
}

func TestNotFound(t *testing.T) {
	f := setup(t)
	rec := f.browser(t).get("/lol")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Página não encontrada.")
}
