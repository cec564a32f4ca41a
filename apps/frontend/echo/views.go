package echoweb

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/apiclient"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

const msgSessionExpired = "Sua sessão expirou, faça login novamente."

type views struct {
	client *apiclient.Client
	conf   *core.Config
	logger core.Logger
	store  session.Store
}

// save persists the session, along with any access token refreshed during the request, and sets its cookie.
func (v *views) save(ctx echo.Context) error {
	sess := getSession(ctx)
	if api := getAPI(ctx); api != nil && sess.IsAuthenticated() {
		tokens := api.Tokens()
		sess.SetTokens(tokens.Access, tokens.Refresh)
	}
	if err := v.store.Save(ctx.Request().Context(), sess); err != nil {
		return errors.Wrap(err, "saving session")
	}
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.Expires,
		HttpOnly: true,
		Secure:   v.conf.Frontend.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (v *views) redirect(ctx echo.Context, url string) error {
	if err := v.save(ctx); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, url)
}

func (v *views) render(ctx echo.Context, name string, data interface{}) error {
	sess := getSession(ctx)
	page := pageData{
		AppName:   v.conf.AppName,
		Flashes:   sess.PopFlashes(),
		CSRFField: csrfField,
		Data:      data,
	}
	page.CSRFToken, _ = ctx.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	if me, ok := getPerfil(ctx); ok {
		page.Perfil = &me
	}

	if err := v.save(ctx); err != nil {
		return err
	}
	return ctx.Render(http.StatusOK, name, page)
}

// flashRedirect flashes msg and redirects to url.
func (v *views) flashRedirect(ctx echo.Context, level, msg, url string) error {
	getSession(ctx).AddFlash(level, msg)
	return v.redirect(ctx, url)
}

// expired logs out a session whose tokens the API no longer accepts.
func (v *views) expired(ctx echo.Context) error {
	getSession(ctx).Flush()
	return v.flashRedirect(ctx, session.LevelError, msgSessionExpired, "/login")
}

// failed reports a failed API call on what the user was trying to do, then redirects to url.
func (v *views) failed(ctx echo.Context, err error, action, url string) error {
	if errors.Cause(err) == apiclient.ErrSessionExpired {
		return v.expired(ctx)
	}
	var msg string
	if apiErr, ok := errors.Cause(err).(*apiclient.Error); ok {
		msg = fmt.Sprintf("Erro ao %s: %s", action, apiErr.Error())
	} else {
		v.logger.Error("calling API", errors.Wrap(err, action))
		msg = fmt.Sprintf("Erro inesperado ao %s: %v", action, err)
	}
	return v.flashRedirect(ctx, session.LevelError, msg, url)
}

// requireGerente reports whether the logged in Perfil is a Gerente.
func requireGerente(ctx echo.Context) bool {
	me, ok := getPerfil(ctx)
	return ok && me.Tipo == perfil.TipoGerente
}

// formValues returns the trimmed form values of names, and whether all of them are set.
func formValues(ctx echo.Context, names ...string) ([]string, bool) {
	values := make([]string, len(names))
	complete := true
	for i, name := range names {
		values[i] = strings.TrimSpace(ctx.FormValue(name))
		if values[i] == "" {
			complete = false
		}
	}
	return values, complete
}

func parseCargaHoraria(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func (v *views) home(ctx echo.Context) error {
	return v.render(ctx, "index", nil)
}
