package api

import (
	"context"

	"github.com/rpupo63/portfolio-site-backend/models"
)

type keyType string

const (
	userKey keyType = "user"
)

// ctxWithUser adds the signed-in user to the context
func ctxWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// userFromContext returns nil for anonymous requests
func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}
