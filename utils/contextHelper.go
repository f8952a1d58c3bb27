package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/recipe_backend/appctx"
)

var (
	ContextKeyToken          = appctx.ContextKeyToken
	ContextKeyRefreshToken   = appctx.ContextKeyRefreshToken
	ContextKeyUserId         = appctx.ContextKeyUserId
	ContextKeyEmail          = appctx.ContextKeyEmail
	ContextKeyCorrelationId  = appctx.ContextKeyCorrelationId
	ContextKeyRefreshedToken = appctx.ContextKeyRefreshedToken
)

func GetTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyToken)
}

func GetRefreshTokenFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyRefreshToken)
}

func GetUserIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUserId)
}

func GetEmailFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyEmail)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyToken, token)
}

func SetRefreshTokenInContext(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, ContextKeyRefreshToken, token)
}

func SetUserIdInContext(ctx context.Context, userId string) context.Context {
	return appctx.Set(ctx, ContextKeyUserId, userId)
}

func SetEmailInContext(ctx context.Context, email string) context.Context {
	return appctx.Set(ctx, ContextKeyEmail, email)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

// WithRefreshedTokenHolder installs an empty holder the session check can
// write a freshly minted access token into.
func WithRefreshedTokenHolder(ctx context.Context) (context.Context, *string) {
	holder := new(string)
	return appctx.Set(ctx, ContextKeyRefreshedToken, holder), holder
}

// SetRefreshedToken is a no-op when no holder was installed.
func SetRefreshedToken(ctx context.Context, token string) {
	if holder, ok := ctx.Value(ContextKeyRefreshedToken).(*string); ok && holder != nil {
		*holder = token
	}
}
