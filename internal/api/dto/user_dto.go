package dto

import (
	"strings"
	"time"

	"github.com/kheyma/kheyma-service/internal/domain"
	"github.com/kheyma/kheyma-service/internal/service"
)

// DateLayout is the wire format of calendar dates such as date of birth.
const DateLayout = "2006-01-02"

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	DOB      string  `json:"dob"`
	Address  string  `json:"address"`
	Package  *string `json:"package"`
}

// ToInput converts the payload. It returns field errors for values that
// cannot be parsed.
func (r RegisterRequest) ToInput() (service.RegisterInput, map[string]any) {
	in := service.RegisterInput{
		Email:    r.Email,
		Password: r.Password,
		Address:  r.Address,
		Package:  parsePackage(r.Package),
	}
	if r.DOB != "" {
		dob, err := time.Parse(DateLayout, r.DOB)
		if err != nil {
			return in, map[string]any{"dob": "must be a date in YYYY-MM-DD format"}
		}
		in.DOB = &dob
	}
	return in, nil
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest payload for PUT /api/auth/me. Omitted and null
// fields are kept; an empty dob or package clears the stored value.
type UpdateProfileRequest struct {
	DOB     *string `json:"dob"`
	Address *string `json:"address"`
	Package *string `json:"package"`
}

func (r UpdateProfileRequest) ToUpdate() (service.ProfileUpdate, map[string]any) {
	upd := service.ProfileUpdate{
		Address:      r.Address,
		Package:      parsePackage(r.Package),
		ClearPackage: isBlank(r.Package),
		ClearDOB:     isBlank(r.DOB),
	}
	if r.DOB != nil && !upd.ClearDOB {
		dob, err := time.Parse(DateLayout, strings.TrimSpace(*r.DOB))
		if err != nil {
			return upd, map[string]any{"dob": "must be a date in YYYY-MM-DD format"}
		}
		upd.DOB = &dob
	}
	return upd, nil
}

// AdminUpdateUserRequest payload for PUT /api/admin/users/:id.
type AdminUpdateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	UpdateProfileRequest
}

func (r AdminUpdateUserRequest) ToAdminUpdate() (service.AdminUserUpdate, map[string]any) {
	profile, fieldErrs := r.UpdateProfileRequest.ToUpdate()
	return service.AdminUserUpdate{
		Email:    r.Email,
		Password: r.Password,
		Profile:  profile,
	}, fieldErrs
}

// ParsePackage normalizes a package name taken from a query string.
func ParsePackage(raw string) domain.PackageType {
	if pkg := parsePackage(&raw); pkg != nil {
		return *pkg
	}
	return ""
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// UserResponse is the public view of an account. The password hash is never exposed.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	DOB       *string   `json:"dob,omitempty"`
	Address   string    `json:"address,omitempty"`
	Role      string    `json:"role"`
	Package   *string   `json:"package,omitempty"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse builds the public view of u.
func NewUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Address:   u.Address,
		Role:      string(u.Role),
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt,
	}
	if u.DOB != nil {
		dob := u.DOB.Format(DateLayout)
		resp.DOB = &dob
	}
	if u.Package != nil {
		pkg := string(*u.Package)
		resp.Package = &pkg
	}
	return resp
}

// NewUserResponses maps a slice of users.
func NewUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// NewAuthResponse builds the auth block of register and login responses.
func NewAuthResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     res.Token.Value,
		ExpiresAt: res.Token.ExpiresAt.UTC(),
		Email:     res.User.Email,
		Role:      string(res.User.Role),
	}
}

func parsePackage(raw *string) *domain.PackageType {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}
	pkg := domain.PackageType(strings.ToUpper(strings.TrimSpace(*raw)))
	return &pkg
}

func isBlank(raw *string) bool {
	return raw != nil && strings.TrimSpace(*raw) == ""
}
