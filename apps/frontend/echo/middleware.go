package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/apiclient"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
)

const sessionCookie = "sessionid"

var (
	contextSessionKey = "session"
	contextAPIKey     = "api"
	contextPerfilKey  = "perfil"
)

// newSessionMiddleware loads the session named by the session cookie, or starts a new one.
func newSessionMiddleware(store session.Store, conf *core.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			var sess *session.Session
			if cookie, err := ctx.Cookie(sessionCookie); err == nil && cookie.Value != "" {
				sess, err = store.Get(ctx.Request().Context(), cookie.Value)
				if err != nil && err != session.ErrNotFound {
					return errors.Wrap(err, "loading session")
				}
			}
			if sess == nil {
				sess = session.New(conf.Frontend.SessionMaxAge)
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

// requirePerfil redirects anonymous visitors to the login page, flashing msg when set.
// Otherwise it stores the API client of the session and the logged in Perfil in the context.
func (v *views) requirePerfil(msg string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := getSession(ctx)
			if !sess.IsAuthenticated() {
				if msg != "" {
					sess.AddFlash(session.LevelError, msg)
				}
				return v.redirect(ctx, "/login")
			}

			api := v.client.Session(&apiclient.Tokens{Access: sess.Access, Refresh: sess.Refresh})
			ctx.Set(contextAPIKey, api)

			me, err := api.Me(ctx.Request().Context())
			if err != nil {
				if errors.Cause(err) == apiclient.ErrSessionExpired {
					return v.expired(ctx)
				}
				sess.Flush()
				if apiErr, ok := errors.Cause(err).(*apiclient.Error); ok {
					sess.AddFlash(session.LevelError, "Erro ao obter perfil do usuário: "+apiErr.Error())
				} else {
					v.logger.Error("fetching perfil", err)
					sess.AddFlash(session.LevelError, fmt.Sprintf("Erro inesperado ao obter perfil do usuário: %v", err))
				}
				return v.redirect(ctx, "/login")
			}
			ctx.Set(contextPerfilKey, me)
			return next(ctx)
		}
	}
}

func getSession(ctx echo.Context) *session.Session {
	sess, _ := ctx.Get(contextSessionKey).(*session.Session)
	return sess
}

func getAPI(ctx echo.Context) *apiclient.SessionClient {
	api, _ := ctx.Get(contextAPIKey).(*apiclient.SessionClient)
	return api
}

func getPerfil(ctx echo.Context) (echoapi.MeResponse, bool) {
	me, ok := ctx.Get(contextPerfilKey).(echoapi.MeResponse)
	return me, ok
}

// newWebHTTPErrorHandler renders errors as HTML pages.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newWebHTTPErrorHandler(appName string, logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := http.StatusInternalServerError
		message := "Ocorreu um erro inesperado. Tente novamente mais tarde."

		if herr, ok := errors.Cause(err).(*echo.HTTPError); ok {
			code = herr.Code
			switch code {
			case http.StatusNotFound:
				message = "Página não encontrada."
			case http.StatusForbidden, http.StatusBadRequest:
				// echo's CSRF middleware
				message = "Sua requisição expirou ou é inválida. Recarregue a página e tente novamente."
			case http.StatusMethodNotAllowed:
				message = "Método não permitido."
			default:
				message = http.StatusText(code)
			}
		} else {
			logger.Error(message, errors.Wrap(err, "rendering page"))
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}

		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				err = ctx.Render(code, "error", pageData{AppName: appName, Data: echo.Map{"Code": code, "Message": message}})
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
