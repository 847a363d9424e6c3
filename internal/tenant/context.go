package tenant

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikhilbhutani/notiflex/internal/models"
)

type contextKey string

const (
	clientKey contextKey = "client"
	userKey   contextKey = "user"
)

func WithClient(ctx context.Context, c *models.Client) context.Context {
	return context.WithValue(ctx, clientKey, c)
}

func FromContext(ctx context.Context) *models.Client {
	c, _ := ctx.Value(clientKey).(*models.Client)
	return c
}

func IDFromContext(ctx context.Context) uuid.UUID {
	if c := FromContext(ctx); c != nil {
		return c.ID
	}
	return uuid.Nil
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if u := UserFromContext(ctx); u != nil {
		return u.ID
	}
	return uuid.Nil
}
