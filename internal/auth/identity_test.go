package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/repository"
)

type failingLookup struct {
	err error
}

func (f failingLookup) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, f.err
}

func TestIdentityResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	user := &domain.User{Email: "a@x.com", PasswordHash: "hash", Role: domain.RoleUser, Enabled: true}
	require.NoError(t, repo.Create(ctx, user))

	resolver := NewIdentityResolver(repo)

	identity, err := resolver.Resolve(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, &domain.Identity{SubjectID: "a@x.com", Role: domain.RoleUser, Enabled: true}, identity)

	_, err = resolver.Resolve(ctx, "ghost@x.com")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestIdentityResolver_ReflectsCurrentState(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	user := &domain.User{Email: "a@x.com", PasswordHash: "hash", Role: domain.RoleUser, Enabled: true}
	require.NoError(t, repo.Create(ctx, user))
	resolver := NewIdentityResolver(repo)

	user.Role = domain.RoleAdmin
	user.Enabled = false
	require.NoError(t, repo.Update(ctx, user))

	identity, err := resolver.Resolve(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, identity.Role)
	assert.False(t, identity.Enabled)
}

func TestIdentityResolver_StoreFault(t *testing.T) {
	cause := errors.New("connection reset")
	resolver := NewIdentityResolver(failingLookup{err: cause})

	_, err := resolver.Resolve(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrIdentityNotFound)
}
