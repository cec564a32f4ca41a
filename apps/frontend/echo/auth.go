package echoweb

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/apiclient"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/frontend/session"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

type loginData struct {
	Email string
}

type resetConfirmData struct {
	UID   string
	Token string
}

func (v *views) loginForm(ctx echo.Context) error {
	if getSession(ctx).IsAuthenticated() {
		return v.redirect(ctx, "/")
	}
	return v.render(ctx, "login", loginData{})
}

func (v *views) login(ctx echo.Context) error {
	sess := getSession(ctx)
	values, ok := formValues(ctx, "email", "password")
	email, password := values[0], values[1]
	if !ok {
		sess.AddFlash(session.LevelError, "Email e senha são obrigatórios.")
		return v.render(ctx, "login", loginData{Email: email})
	}

	tokens, err := v.client.ObtainToken(ctx.Request().Context(), email, password)
	if err != nil {
		apiErr, isAPIErr := errors.Cause(err).(*apiclient.Error)
		switch {
		case isAPIErr && apiErr.StatusCode == http.StatusUnauthorized:
			sess.AddFlash(session.LevelError, "Email ou senha incorretos, tente novamente.")
		case isAPIErr:
			sess.AddFlash(session.LevelError, "Login falhou: "+apiErr.Error())
		default:
			v.logger.Error("logging in", err)
			sess.AddFlash(session.LevelError, fmt.Sprintf("Erro inesperado ao tentar logar: %v", err))
		}
		return v.render(ctx, "login", loginData{Email: email})
	}

	// new ID on login
	if err = v.store.Delete(ctx.Request().Context(), sess.ID); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	sess.Renew(v.conf.Frontend.SessionMaxAge)
	sess.SetTokens(tokens.Access, tokens.Refresh)
	return v.flashRedirect(ctx, session.LevelSuccess, "Login realizado com sucesso!", "/")
}

func (v *views) logout(ctx echo.Context) error {
	getSession(ctx).Flush()
	return v.flashRedirect(ctx, session.LevelSuccess, "Logout realizado com sucesso!", "/login")
}

func (v *views) passwordResetForm(ctx echo.Context) error {
	return v.render(ctx, "password_reset", nil)
}

func (v *views) passwordReset(ctx echo.Context) error {
	values, ok := formValues(ctx, "email")
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, "Informe o email do seu perfil.", "/password-reset")
	}

	if err := v.client.RequestPasswordReset(ctx.Request().Context(), values[0]); err != nil {
		if apiErr, isAPIErr := errors.Cause(err).(*apiclient.Error); isAPIErr {
			return v.flashRedirect(ctx, session.LevelError, apiErr.Message(), "/password-reset")
		}
		return v.failed(ctx, err, "solicitar redefinição de senha", "/password-reset")
	}
	return v.flashRedirect(ctx, session.LevelInfo,
		"Se houver um perfil ativo com esse email, você receberá um link para redefinir sua senha.", "/login")
}

func (v *views) passwordResetConfirmForm(ctx echo.Context) error {
	return v.render(ctx, "password_reset_confirm", resetConfirmData{UID: ctx.Param("uid"), Token: ctx.Param("token")})
}

func (v *views) passwordResetConfirm(ctx echo.Context) error {
	uid, token := ctx.Param("uid"), ctx.Param("token")
	back := "/password-reset/" + uid + "/" + token

	values, ok := formValues(ctx, "password", "password_confirm")
	if !ok {
		return v.flashRedirect(ctx, session.LevelError, "Todos os campos são obrigatórios.", back)
	}

	err := v.client.ConfirmPasswordReset(ctx.Request().Context(), perfil.ResetPassword{
		UID:             uid,
		Token:           token,
		Password:        values[0],
		PasswordConfirm: values[1],
	})
	if err != nil {
		if apiErr, isAPIErr := errors.Cause(err).(*apiclient.Error); isAPIErr {
			return v.flashRedirect(ctx, session.LevelError, apiErr.Message(), back)
		}
		return v.failed(ctx, err, "redefinir senha", back)
	}
	getSession(ctx).Flush()
	return v.flashRedirect(ctx, session.LevelSuccess, "Senha redefinida com sucesso! Faça login com a nova senha.", "/login")
}
