package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core"
	"github.com/ViictorDantas/Prova-Tecnica-Unifip/core/perfil"
)

// token types
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

var (
	contextTokenKey  = "perfilToken"
	contextPerfilKey = "perfil"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	TokenType string `json:"token_type"`
	Email     string `json:"email,omitempty"`
	Tipo      string `json:"tipo,omitempty"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type authenticator struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	svc        perfil.ServiceInterface
}

func newAuthenticator(conf *core.Config, svc perfil.ServiceInterface) *authenticator {
	return &authenticator{
		signingKey: []byte(conf.SecretKey),
		issuer:     conf.AppName,
		accessTTL:  conf.JWTExpirationDelta,
		refreshTTL: conf.JWTRefreshExpirationDelta,
		svc:        svc,
	}
}

func (a *authenticator) claims(p perfil.Perfil, tokenType string) *Claims {
	now := time.Now()
	ttl := a.accessTTL
	if tokenType == TokenRefresh {
		ttl = a.refreshTTL
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   p.ID,
			Id:        core.NewID(),
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		TokenType: tokenType,
		Email:     p.Email,
		Tipo:      p.Tipo,
	}
}

func (a *authenticator) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// tokenPair issues a new access token along with its refresh token.
func (a *authenticator) tokenPair(p perfil.Perfil) (TokenPair, error) {
	access, err := a.sign(a.claims(p, TokenAccess))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := a.sign(a.claims(p, TokenRefresh))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// parse verifies a token string and checks it is of the wanted type.
func (a *authenticator) parse(tokenStr, tokenType string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, errInvalidToken
	}
	return claims, nil
}

// refresh issues a new access token for a valid refresh token of an active Perfil.
func (a *authenticator) refresh(ctx echo.Context, refreshToken string) (string, error) {
	claims, err := a.parse(refreshToken, TokenRefresh)
	if err != nil {
		return "", err
	}
	p, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == perfil.ErrNotFound {
			return "", errInvalidToken
		}
		return "", errors.Wrap(err, "finding perfil by ID")
	}
	if !p.Ativo {
		return "", errPerfilInativo
	}
	return a.sign(a.claims(p, TokenAccess))
}

func (a *authenticator) jwtMiddleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.signingKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

// perfilMiddleware loads the active Perfil the access token belongs to. Refresh tokens are rejected.
func (a *authenticator) perfilMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.TokenType != TokenAccess {
				return errInvalidToken
			}

			p, err := a.svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == perfil.ErrNotFound {
					return errInvalidToken
				}
				return errors.Wrap(err, "finding perfil by ID")
			}
			if !p.Ativo {
				return errPerfilInativo
			}
			ctx.Set(contextPerfilKey, p)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextPerfil(ctx echo.Context) (perfil.Perfil, error) {
	if p, ok := ctx.Get(contextPerfilKey).(perfil.Perfil); ok {
		return p, nil
	}
	return perfil.Perfil{}, errUnauthorized
}

// GenerateTokenPair issues tokens for p the way the login endpoint does.
func GenerateTokenPair(conf *core.Config, p perfil.Perfil) (TokenPair, error) {
	return newAuthenticator(conf, nil).tokenPair(p)
}
