package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/curso"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/disciplina"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "As credenciais de autenticação não foram fornecidas.")
	errInvalidCredentials = echo.NewHTTPError(http.StatusUnauthorized, "Nenhuma conta ativa encontrada com as credenciais fornecidas")
	errInvalidToken       = echo.NewHTTPError(http.StatusUnauthorized, "O token informado não é válido para qualquer tipo de token")
	errPerfilInativo      = echo.NewHTTPError(http.StatusUnauthorized, "Perfil inativo.")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "Você não tem permissão para executar essa ação.")
	errSelfDelete         = echo.NewHTTPError(http.StatusForbidden, "Você não pode excluir o próprio perfil.")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "Não encontrado.")
	errTooManyRequests    = echo.NewHTTPError(http.StatusTooManyRequests, "Muitas requisições. Tente novamente mais tarde.")

	notFoundErrs = []error{perfil.ErrNotFound, curso.ErrNotFound, disciplina.ErrNotFound}
)

// asHTTPError maps domain sentinels and echo's JWT errors to the API's HTTP errors.
func asHTTPError(err error) (*echo.HTTPError, bool) {
	cause := errors.Cause(err)
	for _, nf := range notFoundErrs {
		if cause == nf {
			return errHttpNotFound, true
		}
	}
	if cause == perfil.ErrInvalidCredentials {
		return errInvalidCredentials, true
	}

	herr, ok := cause.(*echo.HTTPError)
	if !ok {
		return nil, false
	}
	if herr == middleware.ErrJWTMissing {
		return errUnauthorized, true
	}
	if herr.Internal != nil {
		if inner, ok := herr.Internal.(*echo.HTTPError); ok {
			return inner, true
		}
		if herr.Code == http.StatusUnauthorized {
			// echo's JWT middleware failed to parse or verify the token
			return errInvalidToken, true
		}
	}
	return herr, true
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		if herr, ok := asHTTPError(err); ok {
			code = herr.Code
			message = herr.Message
		} else {
			switch origErr := errors.Cause(err).(type) {
			case validator.ValidationErrors:
				code = http.StatusBadRequest
				message = core.TranslateErrors(origErr, translator)
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				if p, pErr := getContextPerfil(ctx); pErr == nil {
					logger.Error(msg, errors.Wrap(err, msg), p)
				} else {
					logger.Error(msg, errors.Wrap(err, msg))
				}

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
