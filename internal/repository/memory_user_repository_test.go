package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kheyma/kheyma-service/internal/domain"
)

func newUser(email string) *domain.User {
	return &domain.User{Email: email, PasswordHash: "hash", Role: domain.RoleUser, Enabled: true}
}

func TestMemoryUserRepository_CreateAndGet(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user := newUser("a@x.com")
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("a@x.com")))
	assert.ErrorIs(t, repo.Create(ctx, newUser("a@x.com")), ErrDuplicateEmail)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user := newUser("a@x.com")
	require.NoError(t, repo.Create(ctx, user))

	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	loaded.Role = domain.RoleAdmin

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, again.Role)
}

func TestMemoryUserRepository_UpdateAndDelete(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user := newUser("a@x.com")
	require.NoError(t, repo.Create(ctx, user))

	user.Enabled = false
	require.NoError(t, repo.Update(ctx, user))

	loaded, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, loaded.Enabled)

	require.NoError(t, repo.Delete(ctx, user.ID))
	_, err = repo.GetByEmail(ctx, "a@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, user), ErrNotFound)
}

func TestMemoryUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(ctx, newUser("race@x.com")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
