package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Injamhossan/contest-arena/internal/api/handler/v1/response"
	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/jwthelper"
)

const sessionKey = "session"

var errMissingToken = errors.New("missing bearer token")

// UserFinder loads the user behind a token so the session carries the
// current role rather than the one at login time.
type UserFinder interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

type Authenticator struct {
	key   []byte
	users UserFinder
}

func NewAuthenticator(key string, users UserFinder) *Authenticator {
	return &Authenticator{
		key:   []byte(key),
		users: users,
	}
}

// VerifyJWT rejects requests without a valid token. Websocket clients may
// pass the token as the token query parameter.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sess, err := a.authenticate(ctx)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		ctx.Set(sessionKey, sess)
		ctx.Next()
	}
}

// OptionalJWT attaches a session when a valid token is present and lets
// anonymous requests through.
func (a *Authenticator) OptionalJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if sess, err := a.authenticate(ctx); err == nil {
			ctx.Set(sessionKey, sess)
		}

		ctx.Next()
	}
}

func (a *Authenticator) authenticate(ctx *gin.Context) (domain.Session, error) {
	token := bearerToken(ctx)
	if token == "" {
		return domain.Session{}, errMissingToken
	}

	claims, err := jwthelper.ParseToken(a.key, token)
	if err != nil {
		return domain.Session{}, err
	}

	user, err := a.users.GetUser(ctx.Request.Context(), claims.UserID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("a.users.GetUser -> %w", err)
	}

	return domain.NewSession(user, token), nil
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ctx.Query("token")
}

// Session returns the session attached by the authenticator, or the zero
// session for anonymous requests.
func Session(ctx *gin.Context) domain.Session {
	if v, ok := ctx.Get(sessionKey); ok {
		if sess, ok := v.(domain.Session); ok {
			return sess
		}
	}

	return domain.Session{}
}
