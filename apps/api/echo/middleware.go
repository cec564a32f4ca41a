package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

// tipoMiddleware lets through the Perfis of one of the given tipos.
func tipoMiddleware(tipos ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPerfil(ctx)
			if err != nil {
				return err
			}
			for _, tipo := range tipos {
				if p.Tipo == tipo {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func gerenteMiddleware() echo.MiddlewareFunc {
	return tipoMiddleware(perfil.TipoGerente)
}

func gerenteOrProfessorMiddleware() echo.MiddlewareFunc {
	return tipoMiddleware(perfil.TipoGerente, perfil.TipoProfessor)
}
