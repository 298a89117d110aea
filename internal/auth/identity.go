package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/repository"
)

// ErrIdentityNotFound is returned when a token subject has no backing record.
var ErrIdentityNotFound = errors.New("identity not found")

// UserLookup is the slice of the credential store the resolver needs.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// IdentityResolver loads the current identity for a token subject. Nothing
// is cached, so role and enabled changes apply on the next request.
type IdentityResolver struct {
	users UserLookup
}

// NewIdentityResolver constructs a resolver.
func NewIdentityResolver(users UserLookup) *IdentityResolver {
	return &IdentityResolver{users: users}
}

// Resolve returns the identity stored for subjectID.
func (r *IdentityResolver) Resolve(ctx context.Context, subjectID string) (*domain.Identity, error) {
	user, err := r.users.GetByEmail(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}
	return user.Identity(), nil
}
