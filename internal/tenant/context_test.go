package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nikhilbhutani/notiflex/internal/models"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, FromContext(ctx))
	assert.Nil(t, UserFromContext(ctx))
	assert.Equal(t, uuid.Nil, IDFromContext(ctx))
	assert.Equal(t, uuid.Nil, UserIDFromContext(ctx))

	client := &models.Client{ID: uuid.New(), Name: "Acme"}
	user := &models.User{ID: uuid.New(), ClientID: client.ID}

	ctx = WithUser(WithClient(ctx, client), user)
	assert.Same(t, client, FromContext(ctx))
	assert.Same(t, user, UserFromContext(ctx))
	assert.Equal(t, client.ID, IDFromContext(ctx))
	assert.Equal(t, user.ID, UserIDFromContext(ctx))
}
