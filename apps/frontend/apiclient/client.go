// Package apiclient talks to the REST API on behalf of the frontend.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	echoapi "github.com/ViictorDantas/Prova-Tecnica-Unifip/apps/api/echo"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

// ErrSessionExpired is returned when the access token was rejected and could not be refreshed.
var ErrSessionExpired = errors.New("sessão expirada")

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Body)
}

// Messages decodes the error body: {"error": "..."} or a {field: message} map.
func (e *Error) Messages() map[string]string {
	msgs := make(map[string]string)
	if err := json.Unmarshal([]byte(e.Body), &msgs); err != nil {
		return nil
	}
	return msgs
}

// Message is a human readable summary of the error body.
func (e *Error) Message() string {
	msgs := e.Messages()
	if len(msgs) == 0 {
		return e.Error()
	}
	if msg, ok := msgs["error"]; ok {
		return msg
	}
	parts := make([]string, 0, len(msgs))
	for field, msg := range msgs {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// StatusCode returns the HTTP status of an *Error, or 0.
func StatusCode(err error) int {
	if apiErr, ok := errors.Cause(err).(*Error); ok {
		return apiErr.StatusCode
	}
	return 0
}

// Tokens are the credentials of a frontend session.
type Tokens struct {
	Access  string
	Refresh string
}

type Client struct {
	baseURL string
	rest    *rest.Client
}

func New(conf *core.Config) *Client {
	baseURL := conf.Frontend.InternalAPIBaseURL
	if baseURL == "" {
		baseURL = conf.Frontend.APIBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.Frontend.APITimeout}},
	}
}

func (c *Client) send(ctx context.Context, method rest.Method, path, access string, query map[string]string, in, out interface{}) error {
	req := rest.Request{
		Method:      method,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if access != "" {
		req.Headers["Authorization"] = "Bearer " + access
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return &Error{StatusCode: res.StatusCode, Body: res.Body}
	}
	if out != nil && res.Body != "" {
		if err = json.Unmarshal([]byte(res.Body), out); err != nil {
			return errors.Wrapf(err, "decoding %s %s response", method, path)
		}
	}
	return nil
}

func (c *Client) ObtainToken(ctx context.Context, email, password string) (Tokens, error) {
	var pair echoapi.TokenPair
	err := c.send(ctx, rest.Post, "/auth/token", "", nil, echoapi.LoginRequest{Email: email, Password: password}, &pair)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: pair.Access, Refresh: pair.Refresh}, nil
}

// RefreshToken returns a new access token.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (string, error) {
	var resp echoapi.RefreshResponse
	if err := c.send(ctx, rest.Post, "/auth/token/refresh", "", nil, echoapi.RefreshRequest{Refresh: refresh}, &resp); err != nil {
		return "", err
	}
	return resp.Access, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.send(ctx, rest.Post, "/auth/password-reset", "", nil, echoapi.PasswordResetRequest{Email: email}, nil)
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, rp perfil.ResetPassword) error {
	return c.send(ctx, rest.Post, "/auth/password-reset-confirm", "", nil, rp, nil)
}

// Session returns a client acting with the given tokens. Refreshed access tokens are written back to tokens.
func (c *Client) Session(tokens *Tokens) *SessionClient {
	return &SessionClient{c: c, tokens: tokens}
}
