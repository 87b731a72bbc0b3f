package common

import (
	"context"

	"github.com/formcollector/api/internal/auth"
)

type contextKey string

const authUserContextKey contextKey = "authUser"

// ContextWithUser は認証済みの管理者をコンテキストに格納する。
func ContextWithUser(ctx context.Context, user auth.Identity) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

// UserFromContext はコンテキストから認証済みの管理者を取り出す。
func UserFromContext(ctx context.Context) (auth.Identity, bool) {
	user, ok := ctx.Value(authUserContextKey).(auth.Identity)
	return user, ok
}
