package echoweb

import (
	"github.com/labstack/echo/v4"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

func (v *views) perfis(ctx echo.Context) error {
	if !requireGerente(ctx) {
		return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para acessar esta página.", "/")
	}
	perfis, err := getAPI(ctx).ListPerfis(ctx.Request().Context())
	if err != nil {
		return v.failed(ctx, err, "carregar perfis", "/")
	}
	return v.render(ctx, "perfis", perfis)
}

func (v *views) addPerfil(ctx echo.Context) error {
	if !requireGerente(ctx) {
		return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para adicionar perfis.", "/")
	}

	values, ok := formValues(ctx, "nome", "email", "password", "tipo")
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, msgTodosCampos, "/perfis")
	}

	_, err := getAPI(ctx).CreatePerfil(ctx.Request().Context(), perfil.NewPerfil{
		Nome:     values[0],
		Email:    values[1],
		Password: values[2],
		Tipo:     values[3],
		Ativo:    core.BoolPtr(true),
	})
	if err != nil {
		return v.failed(ctx, err, "adicionar perfil", "/perfis")
	}
	return v.flashRedirect(ctx, session.LevelSuccess, "Perfil adicionado com sucesso!", "/perfis")
}

func (v *views) editPerfil(ctx echo.Context) error {
	if !requireGerente(ctx) {
		return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para editar perfis.", "/")
	}

	values, ok := formValues(ctx, "nome", "email", "tipo")
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, msgTodosCampos, "/perfis")
	}

	_, err := getAPI(ctx).UpdatePerfil(ctx.Request().Context(), ctx.Param("id"), perfil.UpdatePerfil{
		Nome:  values[0],
		Email: values[1],
		Tipo:  values[2],
		Ativo: core.BoolPtr(ctx.FormValue("ativo") == "on"),
	})
	if err != nil {
		return v.failed(ctx, err, "atualizar perfil", "/perfis")
	}
	return v.flashRedirect(ctx, session.LevelSuccess, "Perfil atualizado com sucesso!", "/perfis")
}

func (v *views) togglePerfil(ctx echo.Context) error {
	if !requireGerente(ctx) {
		return v.flashRedirect(ctx, session.LevelError, "Você não tem permissão para alterar status de perfis.", "/")
	}

	ativo := ctx.FormValue("ativo") == "true"
	if _, err := getAPI(ctx).SetPerfilAtivo(ctx.Request().Context(), ctx.Param("id"), ativo); err != nil {
		return v.failed(ctx, err, "alterar status do perfil", "/perfis")
	}
	msg := "Perfil inativado com sucesso!"
	if ativo {
		msg = "Perfil ativado com sucesso!"
	}
	return v.flashRedirect(ctx, session.LevelSuccess, msg, "/perfis")
}
