package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
)

/*
caches:
	Session:$refreshToken
*/

// Session is what a refresh token resolves to.
type Session struct {
	UserId string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenStore keeps refresh tokens.
type TokenStore interface {
	Save(ctx context.Context, refreshToken string, session Session, ttl time.Duration) error
	Lookup(ctx context.Context, refreshToken string) (*Session, error)
	Revoke(ctx context.Context, refreshToken string) error
}

type redisTokenStore struct{}

func sessionKey(refreshToken string) string {
	return "Session:" + refreshToken
}

func (redisTokenStore) Save(_ context.Context, refreshToken string, session Session, ttl time.Duration) error {
	return config.SetRedisObject(sessionKey(refreshToken), &session, ttl)
}

// Lookup returns nil when the token is unknown or expired.
func (redisTokenStore) Lookup(_ context.Context, refreshToken string) (*Session, error) {
	var session Session
	exists, err := config.GetRedisObject(sessionKey(refreshToken), &session)
	if err != nil {
		return nil, err
	}
	if !exists || session.UserId == "" {
		return nil, nil
	}
	return &session, nil
}

func (redisTokenStore) Revoke(_ context.Context, refreshToken string) error {
	return config.RemoveRedisKey(sessionKey(refreshToken))
}

var sessionStore TokenStore = redisTokenStore{}

// SetTokenStore swaps the refresh-token store and returns the previous one.
func SetTokenStore(store TokenStore) TokenStore {
	prev := sessionStore
	sessionStore = store
	return prev
}

func withUser(ctx context.Context, userId string, email string) context.Context {
	ctx = utils.SetUserIdInContext(ctx, userId)
	return utils.SetEmailInContext(ctx, email)
}

// EnsureSession resolves the caller from the access token, refreshing it with
// the refresh token when it is missing or no longer valid. A refreshed access
// token is handed to the refreshed-token holder of ctx.
func EnsureSession(ctx context.Context) (context.Context, error) {
	token, _ := utils.GetTokenFromContext(ctx)
	refreshToken, _ := utils.GetRefreshTokenFromContext(ctx)
	if token == "" && refreshToken == "" {
		return ctx, utils.ErrNotLoggedIn
	}

	if token != "" {
		if claims, err := utils.JwtClaims(token); err == nil {
			return withUser(ctx, claims.UserId, claims.Email), nil
		}
	}
	if refreshToken == "" {
		return ctx, utils.ErrSessionExpired
	}

	session, err := sessionStore.Lookup(ctx, refreshToken)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "EnsureSession", "lookup refresh token", nil, err)
		return ctx, utils.ErrSessionExpired
	}
	if session == nil {
		return ctx, utils.ErrSessionExpired
	}

	accessToken, err := utils.JwtGenerate(session.UserId, session.Email)
	if err != nil {
		return ctx, utils.ErrSessionExpired
	}
	utils.SetRefreshedToken(ctx, accessToken)
	ctx = utils.SetTokenInContext(ctx, accessToken)
	return withUser(ctx, session.UserId, session.Email), nil
}

// withSession runs fn for the caller once the session is valid; auth failures
// are returned without calling fn.
func withSession[T any](ctx context.Context, fn func(ctx context.Context, userId string) (T, error)) (T, error) {
	ctx, err := EnsureSession(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == "" {
		var zero T
		return zero, utils.ErrNotLoggedIn
	}
	return fn(ctx, userId)
}
