package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"

	"github.com/kheyma/kheyma-service/internal/auth"
	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/repository"
)

var packageRule = validation.In(domain.PackageBasic, domain.PackageAdvanced, domain.PackageFull).
	Error("must be one of BASIC, ADVANCED, FULL")

// RegisterInput carries the fields accepted at sign up.
type RegisterInput struct {
	Email    string              `json:"email"`
	Password string              `json:"password"`
	DOB      *time.Time          `json:"dob"`
	Address  string              `json:"address"`
	Package  *domain.PackageType `json:"package"`
}

// Validate checks the input. Email is expected to be normalized already.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&in.Address, validation.Length(0, 255)),
		validation.Field(&in.Package, packageRule),
	)
}

// ProfileUpdate is a partial update of a profile. Nil fields are left
// unchanged; the Clear flags remove an optional value.
type ProfileUpdate struct {
	DOB          *time.Time          `json:"dob"`
	Address      *string             `json:"address"`
	Package      *domain.PackageType `json:"package"`
	ClearDOB     bool                `json:"-"`
	ClearPackage bool                `json:"-"`
}

func (in ProfileUpdate) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Address, validation.Length(0, 255)),
		validation.Field(&in.Package, packageRule),
	)
}

func (in ProfileUpdate) applyTo(user *domain.User) {
	switch {
	case in.DOB != nil:
		user.DOB = in.DOB
	case in.ClearDOB:
		user.DOB = nil
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	switch {
	case in.Package != nil:
		user.Package = in.Package
	case in.ClearPackage:
		user.Package = nil
	}
}

// AdminUserUpdate is an administrator's partial update of any account.
// An empty password leaves the current one in place.
type AdminUserUpdate struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Profile  ProfileUpdate
}

// Validate checks the input. Email is expected to be normalized already.
func (in AdminUserUpdate) Validate() error {
	return mergeFieldErrors(
		validation.ValidateStruct(&in,
			validation.Field(&in.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.Email),
			validation.Field(&in.Password, validation.Length(6, 72)),
		),
		in.Profile.Validate(),
	)
}

func mergeFieldErrors(errs ...error) error {
	merged := validation.Errors{}
	for _, err := range errs {
		if err == nil {
			continue
		}
		fieldErrs, ok := err.(validation.Errors)
		if !ok {
			return err
		}
		for name, ferr := range fieldErrs {
			merged[name] = ferr
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	Token    domain.Token
	Identity *domain.Identity
	User     *domain.User
}

// AuthOperations is the surface used by the HTTP layer.
type AuthOperations interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, identity *domain.Identity) (*domain.User, error)
	UpdateProfile(ctx context.Context, identity *domain.Identity, in ProfileUpdate) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ToggleUserStatus(ctx context.Context, id string) (*domain.User, error)
	PromoteToAdmin(ctx context.Context, id string) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, id string, in AdminUserUpdate) (*domain.User, error)
	UpdateUserPackage(ctx context.Context, id string, pkg domain.PackageType) (*domain.User, error)
	DeleteUser(ctx context.Context, id string) (*domain.User, error)
}

// AuthService coordinates registration, login and account administration.
type AuthService struct {
	users   repository.UserRepository
	tokens  *auth.TokenManager
	hasher  *auth.PasswordHasher
	limiter auth.AttemptLimiter
	logger  *zap.Logger
	now     func() time.Time
}

// AuthDependencies encapsulates the collaborators of the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Tokens   *auth.TokenManager
	Hasher   *auth.PasswordHasher
	Limiter  auth.AttemptLimiter
	Logger   *zap.Logger
}

// NewAuthService builds the service. A nil limiter disables attempt limiting.
func NewAuthService(deps AuthDependencies) *AuthService {
	limiter := deps.Limiter
	if limiter == nil {
		limiter = auth.NoopAttemptLimiter{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:   deps.UserRepo,
		tokens:  deps.Tokens,
		hasher:  deps.Hasher,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// NormalizeLoginID trims and lower-cases an email so lookups are case-insensitive.
func NormalizeLoginID(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a USER account and signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Email = NormalizeLoginID(in.Email)
	if err := in.Validate(); err != nil {
		return nil, newValidationError(err)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrDuplicateLoginID
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, storeFault("check existing user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		DOB:          in.DOB,
		Address:      strings.TrimSpace(in.Address),
		Role:         domain.RoleUser,
		Package:      in.Package,
		Enabled:      true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateLoginID
		}
		return nil, storeFault("create user", err)
	}

	return s.issue(user)
}

// Login checks credentials and returns a fresh token. Unknown ids and wrong
// passwords produce the same error after the same amount of hashing work.
// Failed attempts are counted per login id and client address.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	loginID := NormalizeLoginID(email)
	attemptKey := auth.AttemptKey(loginID, auth.ClientIP(ctx))

	allowed, err := s.limiter.Allow(ctx, attemptKey)
	if err != nil {
		s.logger.Warn("attempt limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetByEmail(ctx, loginID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.hasher.VerifyDummy(password)
		s.recordFailure(ctx, attemptKey)
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, storeFault("load user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, attemptKey)
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, ErrAccountDisabled
	}

	if err := s.limiter.Reset(ctx, attemptKey); err != nil {
		s.logger.Warn("reset login failures", zap.Error(err))
	}
	return s.issue(user)
}

// Profile returns the stored record of the authenticated caller.
func (s *AuthService) Profile(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if identity == nil {
		return nil, ErrUserNotFound
	}
	return s.userBy(ctx, s.users.GetByEmail, identity.SubjectID)
}

// UpdateProfile applies the non-nil fields of in to the caller's record.
func (s *AuthService) UpdateProfile(ctx context.Context, identity *domain.Identity, in ProfileUpdate) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, newValidationError(err)
	}
	user, err := s.Profile(ctx, identity)
	if err != nil {
		return nil, err
	}
	in.applyTo(user)
	return s.save(ctx, user)
}

// ListUsers returns every account.
func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeFault("list users", err)
	}
	return users, nil
}

// ToggleUserStatus flips the enabled flag. A disabled account loses access on its next request.
func (s *AuthService) ToggleUserStatus(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userBy(ctx, s.users.GetByID, id)
	if err != nil {
		return nil, err
	}
	user.Enabled = !user.Enabled
	return s.save(ctx, user)
}

// PromoteToAdmin grants the ADMIN role. Promoting an admin is a no-op.
func (s *AuthService) PromoteToAdmin(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userBy(ctx, s.users.GetByID, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleAdmin {
		return user, nil
	}
	user.Role = domain.RoleAdmin
	return s.save(ctx, user)
}

// GetUser returns the account with the given id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.userBy(ctx, s.users.GetByID, id)
}

// UpdateUser applies an administrator's changes. Changing the email
// invalidates tokens issued for the old one.
func (s *AuthService) UpdateUser(ctx context.Context, id string, in AdminUserUpdate) (*domain.User, error) {
	if in.Email != nil {
		email := NormalizeLoginID(*in.Email)
		in.Email = &email
	}
	if err := in.Validate(); err != nil {
		return nil, newValidationError(err)
	}
	user, err := s.userBy(ctx, s.users.GetByID, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	in.Profile.applyTo(user)
	return s.save(ctx, user)
}

// UpdateUserPackage sets the subscription package of an account.
func (s *AuthService) UpdateUserPackage(ctx context.Context, id string, pkg domain.PackageType) (*domain.User, error) {
	if err := validation.Validate(pkg, validation.Required, packageRule); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"packageType": err.Error()}}
	}
	user, err := s.userBy(ctx, s.users.GetByID, id)
	if err != nil {
		return nil, err
	}
	user.Package = &pkg
	return s.save(ctx, user)
}

// DeleteUser removes an account and returns the removed record. Tokens
// already issued to it stop authenticating on their next request.
func (s *AuthService) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userBy(ctx, s.users.GetByID, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeFault("delete user", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Mint(user.Email, s.now())
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}
	return &AuthResult{Token: token, Identity: user.Identity(), User: user}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, attemptKey string) {
	if err := s.limiter.RecordFailure(ctx, attemptKey); err != nil {
		s.logger.Warn("record login failure", zap.Error(err))
	}
}

func (s *AuthService) userBy(ctx context.Context, get func(context.Context, string) (*domain.User, error), key string) (*domain.User, error) {
	user, err := get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, storeFault("load user", err)
	}
	return user, nil
}

func (s *AuthService) save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateLoginID
		}
		return nil, storeFault("update user", err)
	}
	return user, nil
}
