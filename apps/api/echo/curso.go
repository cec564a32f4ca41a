package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
)

type cursoApi struct {
	svc curso.ServiceInterface
}

func registerCursoAPI(g *echo.Group, authed []echo.MiddlewareFunc, svc curso.ServiceInterface) {
	api := cursoApi{svc: svc}

	mws := append(append([]echo.MiddlewareFunc{}, authed...), gerenteMiddleware())
	cg := g.Group("/cursos", mws...)
	cg.GET("", api.query)
	cg.POST("", api.create)

	// detail endpoints
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.PATCH("/:id", api.update)
	cg.DELETE("/:id", api.destroy)
	cg.PATCH("/:id/ativar", api.activate)
	cg.PATCH("/:id/inativar", api.deactivate)
	cg.GET("/:id/resumo", api.resumo)
}

// Handlers

func (api *cursoApi) query(ctx echo.Context) error {
	ativo, err := bindAtivo(ctx)
	if err != nil {
		return err
	}
	filter := curso.QueryFilter{
		Search: ctx.QueryParam(searchParam),
		Codigo: ctx.QueryParam("codigo"),
		Ativo:  ativo,
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, curso.OrderingFields...)

	cursos, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying cursos")
	}
	if cursos == nil {
		cursos = []curso.Curso{}
	}
	return ctx.JSON(http.StatusOK, cursos)
}

func (api *cursoApi) create(ctx echo.Context) error {
	var data curso.NewCurso
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCurso")
	}
	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating curso")
	}
	return api.detalhe(ctx, http.StatusCreated, c.ID)
}

func (api *cursoApi) retrieve(ctx echo.Context) error {
	detalhe, err := api.svc.GetDetalhe(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding curso by ID")
	}
	return ctx.JSON(http.StatusOK, detalhe)
}

func (api *cursoApi) update(ctx echo.Context) error {
	var data curso.UpdateCurso
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCurso")
	}
	c, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating curso")
	}
	return api.detalhe(ctx, http.StatusOK, c.ID)
}

func (api *cursoApi) destroy(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding curso by ID")
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting curso")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *cursoApi) activate(ctx echo.Context) error {
	return api.setAtivo(ctx, true)
}

func (api *cursoApi) deactivate(ctx echo.Context) error {
	return api.setAtivo(ctx, false)
}

func (api *cursoApi) setAtivo(ctx echo.Context, ativo bool) error {
	c, err := api.svc.SetAtivo(ctx.Request().Context(), ctx.Param("id"), ativo)
	if err != nil {
		return errors.Wrap(err, "setting curso ativo")
	}
	return api.detalhe(ctx, http.StatusOK, c.ID)
}

func (api *cursoApi) resumo(ctx echo.Context) error {
	resumo, err := api.svc.GetResumo(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting curso resumo")
	}
	return ctx.JSON(http.StatusOK, resumo)
}

// detalhe responds with the Curso along with its totals.
func (api *cursoApi) detalhe(ctx echo.Context, code int, id string) error {
	detalhe, err := api.svc.GetDetalhe(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding curso by ID")
	}
	return ctx.JSON(code, detalhe)
}
