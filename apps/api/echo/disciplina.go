package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
)

type disciplinaApi struct {
	svc disciplina.ServiceInterface
}

func registerDisciplinaAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc disciplina.ServiceInterface) {
	api := disciplinaApi{svc: svc}

	dg := g.Group("/disciplinas", authed...)
	dg.GET("", api.query, gerenteOrProfessorMiddleware())
	dg.POST("", api.create)

	// detail endpoints
	dg.GET("/:id", api.retrieve, gerenteOrProfessorMiddleware())
	dg.PUT("/:id", api.update, gerenteMiddleware())
	dg.PATCH("/:id", api.update, gerenteMiddleware())
	dg.DELETE("/:id", api.destroy, gerenteMiddleware())
	dg.PATCH("/:id/ativar", api.activate, gerenteMiddleware())
	dg.PATCH("/:id/inativar", api.deactivate, gerenteMiddleware())
}

// Handlers

func (api *disciplinaApi) query(ctx echo.Context) error {
	ativo, err := bindAtivo(ctx)
	if err != nil {
		return err
	}
	filter := disciplina.QueryFilter{
		Search:  ctx.QueryParam(searchParam),
		CursoID: ctx.QueryParam("curso"),
		Ativo:   ativo,
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, disciplina.OrderingFields...)

	items, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying disciplinas")
	}
	if items == nil {
		items = []disciplina.Item{}
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *disciplinaApi) create(ctx echo.Context) error {
	var data disciplina.NewDisciplina
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDisciplina")
	}
	d, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating disciplina")
	}
	return api.detalhe(ctx, http.StatusCreated, d.ID)
}

func (api *disciplinaApi) retrieve(ctx echo.Context) error {
	return api.detalhe(ctx, http.StatusOK, ctx.Param("id"))
}

func (api *disciplinaApi) update(ctx echo.Context) error {
	var data disciplina.UpdateDisciplina
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDisciplina")
	}
	d, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating disciplina")
	}
	return api.detalhe(ctx, http.StatusOK, d.ID)
}

func (api *disciplinaApi) destroy(ctx echo.Context) error {
	d, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding disciplina by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), d.ID); err != nil {
		return errors.Wrap(err, "deleting disciplina")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *disciplinaApi) activate(ctx echo.Context) error {
	return api.setAtivo(ctx, true)
}

func (api *disciplinaApi) deactivate(ctx echo.Context) error {
	return api.setAtivo(ctx, false)
}

func (api *disciplinaApi) setAtivo(ctx echo.Context, ativo bool) error {
	d, err := api.svc.SetAtivo(ctx.Request().Context(), ctx.Param("id"), ativo)
	if err != nil {
		return errors.Wrap(err, "setting disciplina ativo")
	}
	return api.detalhe(ctx, http.StatusOK, d.ID)
}

// detalhe responds with the Disciplina along with its Curso.
func (api *disciplinaApi) detalhe(ctx echo.Context, code int, id string) error {
	detalhe, err := api.svc.GetDetalhe(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding disciplina by ID")
	}
	return ctx.JSON(code, detalhe)
}
