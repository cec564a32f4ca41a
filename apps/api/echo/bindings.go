package echoapi

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

var (
	orderingParam = "ordering"
	searchParam   = "search"
	ativoParam    = "ativo"

	errInvalidBool = errors.New("informe um valor booleano válido")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the "ordering" query param, keeping the allowed fields only.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

// bindAtivo reads the optional boolean "ativo" query param.
func bindAtivo(ctx echo.Context) (*bool, error) {
	raw := ctx.QueryParam(ativoParam)
	if raw == "" {
		return nil, nil
	}
	ativo, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, core.NewFieldError(ativoParam, errInvalidBool)
	}
	return &ativo, nil
}
