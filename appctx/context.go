package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyToken         = ContextKey("Token")
	ContextKeyRefreshToken  = ContextKey("RefreshToken")
	ContextKeyUserId        = ContextKey("UserId")
	ContextKeyEmail         = ContextKey("Email")
	ContextKeyCorrelationId = ContextKey("CorrelationId")

	// ContextKeyRefreshedToken holds a *string the session check fills in
	// when it had to mint a new access token for the request.
	ContextKeyRefreshedToken = ContextKey("RefreshedToken")

	// ContextKeySkipOwnerScope disables user_id scoping for the request.
	// Use sparingly (operator tools only).
	ContextKeySkipOwnerScope = ContextKey("SkipOwnerScope")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetBool(ctx context.Context, key ContextKey) (bool, bool) {
	v, ok := ctx.Value(key).(bool)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
