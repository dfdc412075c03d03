package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt"

	"github.com/sociochat/engine/internal/types"
)

// Session tokens are issued by the external auth service; the engine only
// verifies them with the shared signing key and extracts the identity and
// public profile summary.
const (
	tokenCookieKey = "token"

	subClaim      = "sub"
	usernameClaim = "username"
	avatarClaim   = "avatar_url"
)

type contextKey string

const sessionUserKey contextKey = "session-user"

func SessionUser(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(sessionUserKey).(types.User)
	return user, ok
}

func WithSessionUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, sessionUserKey, user)
}

// tokenFromRequest reads the session token from the cookie the web client
// sends, falling back to a bearer header for non-browser clients.
func tokenFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(tokenCookieKey); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
		return token, nil
	}

	return "", fmt.Errorf("no session token")
}

func (a *App) resolveIdentity(r *http.Request) (types.User, error) {
	tokenString, err := tokenFromRequest(r)
	if err != nil {
		return types.User{}, err
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.signingKey, nil
	})
	if err != nil {
		return types.User{}, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return types.User{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return types.User{}, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims[subClaim].(string)
	if !ok || sub == "" {
		return types.User{}, fmt.Errorf("missing subject claim")
	}

	username, _ := claims[usernameClaim].(string)
	avatar, _ := claims[avatarClaim].(string)

	return types.User{
		Id:        sub,
		Username:  username,
		AvatarURL: avatar,
	}, nil
}
