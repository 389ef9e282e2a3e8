package auth

import (
	"context"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

// ContextKeyAdmin marks a request carrying a valid admin session
const ContextKeyAdmin ContextKey = "admin"

// ContextWithAdmin returns a new context flagged as an admin session
func ContextWithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKeyAdmin, true)
}

// IsAdmin reports whether the context carries a valid admin session
func IsAdmin(ctx context.Context) bool {
	ok, _ := ctx.Value(ContextKeyAdmin).(bool)
	return ok
}
