package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/apiclient"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
)

const (
	msgTodosCampos   = "Todos os campos são obrigatórios."
	msgCargaHoraria  = "Carga horária deve ser um número válido."
	msgCursoNotFound = "Curso não encontrado."
)

func (v *views) cursos(ctx echo.Context) error {
	cursos, err := getAPI(ctx).ListCursos(ctx.Request().Context())
	if err != nil {
		if apiclient.StatusCode(err) == http.StatusForbidden {
			return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para acessar os cursos.", "/")
		}
		return v.failed(ctx, err, "carregar cursos", "/")
	}
	return v.render(ctx, "cursos", cursos)
}

func (v *views) addCurso(ctx echo.Context) error {
	if !requireGerente(ctx) {
		return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para adicionar cursos.", "/")
	}

	values, ok := formValues(ctx, "codigo", "nome", "carga_horaria_total")
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, msgTodosCampos, "/cursos")
	}
	total, ok := parseCargaHoraria(values[2])
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, msgCargaHoraria, "/cursos")
	}

	_, err := getAPI(ctx).CreateCurso(ctx.Request().Context(), curso.NewCurso{
		Codigo:            values[0],
		Nome:              values[1],
		Descricao:         core.StringPtr(ctx.FormValue("descricao")),
		CargaHorariaTotal: total,
		Ativo:             core.BoolPtr(true),
	})
	if err != nil {
		return v.failed(ctx, err, "adicionar curso", "/cursos")
	}
	return v.flashRedirect(ctx, session.LevelSuccess, "Curso adicionado com sucesso!", "/cursos")
}

func (v *views) editCurso(ctx echo.Context) error {
	if !requireGerente(ctx) {
		return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para editar cursos.", "/")
	}

	values, ok := formValues(ctx, "codigo", "nome", "carga_horaria_total")
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, msgTodosCampos, "/cursos")
	}
	total, ok := parseCargaHoraria(values[2])
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, msgCargaHoraria, "/cursos")
	}

	_, err := getAPI(ctx).UpdateCurso(ctx.Request().Context(), ctx.Param("id"), curso.UpdateCurso{
		Codigo:            values[0],
		Nome:              values[1],
		Descricao:         core.StringPtr(ctx.FormValue("descricao")),
		CargaHorariaTotal: core.IntPtr(total),
		Ativo:             core.BoolPtr(ctx.FormValue("ativo") == "on"),
	})
	if err != nil {
		return v.failed(ctx, err, "atualizar curso", "/cursos")
	}
	return v.flashRedirect(ctx, session.LevelSuccess, "Curso atualizado com sucesso!", "/cursos")
}

func (v *views) cursoDetail(ctx echo.Context) error {
	page, err := getAPI(ctx).GetCursoPage(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		switch apiclient.StatusCode(err) {
		case http.StatusForbidden:
			return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para acessar este curso.", "/")
		case http.StatusNotFound:
			return v.flashRedirect(ctx, session.LevelError, msgCursoNotFound, "/")
		}
		return v.failed(ctx, err, "carregar curso", "/")
	}
	return v.render(ctx, "curso_detail", page)
}

func (v *views) addDisciplina(ctx echo.Context) error {
	cursoID := ctx.Param("id")
	detail := "/cursos/" + cursoID

	values, ok := formValues(ctx, "nome", "codigo", "carga_horaria")
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, "Todos os campos da disciplina são obrigatórios.", detail)
	}
	carga, ok := parseCargaHoraria(values[2])
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, msgCargaHoraria, detail)
	}

	_, err := getAPI(ctx).CreateDisciplina(ctx.Request().Context(), disciplina.NewDisciplina{
		Nome:         values[0],
		Codigo:       values[1],
		CargaHoraria: carga,
		CursoID:      cursoID,
	})
	if err != nil {
		return v.failed(ctx, err, "adicionar disciplina", detail)
	}
	return v.flashRedirect(ctx, session.LevelSuccess, "Disciplina adicionada com sucesso!", detail)
}
