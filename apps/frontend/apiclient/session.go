package apiclient

import (
	"context"
	"net/http"
	"sync"

	"github.com/sendgrid/rest"
	"golang.org/x/sync/errgroup"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

// SessionClient sends authenticated requests. On a 401 it refreshes the access token once and retries.
// It is safe for concurrent use.
type SessionClient struct {
	c      *Client
	mu     sync.Mutex
	tokens *Tokens
}

func (sc *SessionClient) access() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.tokens.Access
}

// refresh renews the access token unless another request already did since used was sent.
func (sc *SessionClient) refresh(ctx context.Context, used string) (string, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.tokens.Access != used {
		return sc.tokens.Access, nil
	}
	if sc.tokens.Refresh == "" {
		return "", ErrSessionExpired
	}
	access, err := sc.c.RefreshToken(ctx, sc.tokens.Refresh)
	if err != nil {
		if StatusCode(err) != 0 {
			return "", ErrSessionExpired
		}
		return "", err
	}
	sc.tokens.Access = access
	return access, nil
}

func (sc *SessionClient) send(ctx context.Context, method rest.Method, path string, query map[string]string, in, out interface{}) error {
	access := sc.access()
	err := sc.c.send(ctx, method, path, access, query, in, out)
	if StatusCode(err) != http.StatusUnauthorized {
		return err
	}

	if access, err = sc.refresh(ctx, access); err != nil {
		return err
	}
	err = sc.c.send(ctx, method, path, access, query, in, out)
	if StatusCode(err) == http.StatusUnauthorized {
		return ErrSessionExpired
	}
	return err
}

// Tokens returns a copy of the current tokens.
func (sc *SessionClient) Tokens() Tokens {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return *sc.tokens
}

func (sc *SessionClient) Me(ctx context.Context) (echoapi.MeResponse, error) {
	var me echoapi.MeResponse
	err := sc.send(ctx, rest.Get, "/perfis/me", nil, nil, &me)
	return me, err
}

func (sc *SessionClient) ListCursos(ctx context.Context) ([]curso.Curso, error) {
	cursos := make([]curso.Curso, 0)
	err := sc.send(ctx, rest.Get, "/cursos", nil, nil, &cursos)
	return cursos, err
}

func (sc *SessionClient) GetCurso(ctx context.Context, id string) (curso.Detalhe, error) {
	var c curso.Detalhe
	err := sc.send(ctx, rest.Get, "/cursos/"+id, nil, nil, &c)
	return c, err
}

func (sc *SessionClient) CreateCurso(ctx context.Context, nc curso.NewCurso) (curso.Detalhe, error) {
	var c curso.Detalhe
	err := sc.send(ctx, rest.Post, "/cursos", nil, nc, &c)
	return c, err
}

func (sc *SessionClient) UpdateCurso(ctx context.Context, id string, uc curso.UpdateCurso) (curso.Detalhe, error) {
	var c curso.Detalhe
	err := sc.send(ctx, rest.Put, "/cursos/"+id, nil, uc, &c)
	return c, err
}

func (sc *SessionClient) ListDisciplinas(ctx context.Context, cursoID string) ([]disciplina.Item, error) {
	var query map[string]string
	if cursoID != "" {
		query = map[string]string{"curso": cursoID}
	}
	items := make([]disciplina.Item, 0)
	err := sc.send(ctx, rest.Get, "/disciplinas", query, nil, &items)
	return items, err
}

func (sc *SessionClient) CreateDisciplina(ctx context.Context, nd disciplina.NewDisciplina) (disciplina.Detalhe, error) {
	var d disciplina.Detalhe
	err := sc.send(ctx, rest.Post, "/disciplinas", nil, nd, &d)
	return d, err
}

// CursoPage is what the course detail page shows.
type CursoPage struct {
	Curso       curso.Detalhe
	Disciplinas []disciplina.Item
}

// GetCursoPage fetches a Curso and its Disciplinas concurrently.
func (sc *SessionClient) GetCursoPage(ctx context.Context, id string) (CursoPage, error) {
	var page CursoPage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := sc.GetCurso(gctx, id)
		page.Curso = c
		return err
	})
	g.Go(func() error {
		items, err := sc.ListDisciplinas(gctx, id)
		page.Disciplinas = items
		return err
	})
	if err := g.Wait(); err != nil {
		return CursoPage{}, err
	}
	return page, nil
}

func (sc *SessionClient) ListPerfis(ctx context.Context) ([]echoapi.PerfilResponse, error) {
	perfis := make([]echoapi.PerfilResponse, 0)
	err := sc.send(ctx, rest.Get, "/perfis", nil, nil, &perfis)
	return perfis, err
}

func (sc *SessionClient) CreatePerfil(ctx context.Context, np perfil.NewPerfil) (echoapi.PerfilResponse, error) {
	var p echoapi.PerfilResponse
	err := sc.send(ctx, rest.Post, "/perfis", nil, np, &p)
	return p, err
}

func (sc *SessionClient) UpdatePerfil(ctx context.Context, id string, up perfil.UpdatePerfil) (echoapi.PerfilResponse, error) {
	var p echoapi.PerfilResponse
	err := sc.send(ctx, rest.Put, "/perfis/"+id, nil, up, &p)
	return p, err
}

// SetPerfilAtivo activates or deactivates a Perfil.
func (sc *SessionClient) SetPerfilAtivo(ctx context.Context, id string, ativo bool) (echoapi.PerfilResponse, error) {
	action := "/inativar"
	if ativo {
		action = "/ativar"
	}
	var p echoapi.PerfilResponse
	err := sc.send(ctx, rest.Patch, "/perfis/"+id+action, nil, nil, &p)
	return p, err
}
