package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

type perfilApi struct {
	svc perfil.ServiceInterface
}

func registerPerfilAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc perfil.ServiceInterface) {
	api := perfilApi{svc: svc}

	pg := g.Group("/perfis", authed...)
	pg.GET("", api.query, gerenteOrProfessorMiddleware())
	pg.POST("", api.create, gerenteMiddleware())
	pg.GET("/me", api.me)

	// detail endpoints
	pg.GET("/:id", api.retrieve, gerenteOrProfessorMiddleware())
	pg.PUT("/:id", api.update, gerenteMiddleware())
	pg.PATCH("/:id", api.update, gerenteMiddleware())
	pg.DELETE("/:id", api.destroy, gerenteMiddleware())
	pg.PATCH("/:id/ativar", api.activate, gerenteMiddleware())
	pg.PATCH("/:id/inativar", api.deactivate, gerenteMiddleware())
}

type (
	PerfilResponse struct {
		ID          string `json:"id"`
		Codigo      string `json:"codigo"`
		Nome        string `json:"nome"`
		GetFullName string `json:"get_full_name"`
		Tipo        string `json:"tipo"`
		Email       string `json:"email"`
		Ativo       bool   `json:"ativo"`
	}

	MeResponse struct {
		ID          string `json:"id"`
		Nome        string `json:"nome"`
		GetFullName string `json:"get_full_name"`
		Email       string `json:"email"`
		Tipo        string `json:"tipo"`
		Ativo       bool   `json:"ativo"`
	}
)

func NewPerfilResponse(p perfil.Perfil) PerfilResponse {
	return PerfilResponse{
		ID:          p.ID,
		Codigo:      p.Codigo,
		Nome:        p.Nome,
		GetFullName: p.FullName(),
		Tipo:        p.Tipo,
		Email:       p.Email,
		Ativo:       p.Ativo,
	}
}

func NewMeResponse(p perfil.Perfil) MeResponse {
	return MeResponse{
		ID:          p.ID,
		Nome:        p.Nome,
		GetFullName: p.FullName(),
		Email:       p.Email,
		Tipo:        p.Tipo,
		Ativo:       p.Ativo,
	}
}

// Handlers

func (api *perfilApi) query(ctx echo.Context) error {
	ativo, err := bindAtivo(ctx)
	if err != nil {
		return err
	}
	filter := perfil.QueryFilter{
		Search: ctx.QueryParam(searchParam),
		Tipo:   ctx.QueryParam("tipo"),
		Ativo:  ativo,
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, perfil.OrderingFields...)

	perfis, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying perfis")
	}
	resp := make([]PerfilResponse, 0, len(perfis))
	for _, p := range perfis {
		resp = append(resp, NewPerfilResponse(p))
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *perfilApi) create(ctx echo.Context) error {
	var data perfil.NewPerfil
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPerfil")
	}
	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating perfil")
	}
	return ctx.JSON(http.StatusCreated, NewPerfilResponse(p))
}

func (api *perfilApi) me(ctx echo.Context) error {
	p, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, NewMeResponse(p))
}

func (api *perfilApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding perfil by ID")
	}
	return ctx.JSON(http.StatusOK, NewPerfilResponse(p))
}

func (api *perfilApi) update(ctx echo.Context) error {
	var data perfil.UpdatePerfil
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePerfil")
	}
	p, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating perfil")
	}
	return ctx.JSON(http.StatusOK, NewPerfilResponse(p))
}

func (api *perfilApi) destroy(ctx echo.Context) error {
	p, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding perfil by ID")
	}

	// ctxPerfil cannot delete themselves
	ctxPerfil, err := getContextPerfil(ctx)
	if err != nil {
		return err
	}
	if p.ID == ctxPerfil.ID {
		return errSelfDelete
	}

	if err := api.svc.Delete(ctx.Request().Context(), p.ID); err != nil {
		return errors.Wrap(err, "deleting perfil")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *perfilApi) activate(ctx echo.Context) error {
	return api.setAtivo(ctx, true)
}

func (api *perfilApi) deactivate(ctx echo.Context) error {
	return api.setAtivo(ctx, false)
}

func (api *perfilApi) setAtivo(ctx echo.Context, ativo bool) error {
	p, err := api.svc.SetAtivo(ctx.Request().Context(), ctx.Param("id"), ativo)
	if err != nil {
		return errors.Wrap(err, "setting perfil ativo")
	}
	return ctx.JSON(http.StatusOK, NewPerfilResponse(p))
}
