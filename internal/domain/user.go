package domain

import "time"

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// PackageType is the camping package a user subscribed to.
type PackageType string

const (
	PackageBasic    PackageType = "BASIC"
	PackageAdvanced PackageType = "ADVANCED"
	PackageFull     PackageType = "FULL"
)

// Valid reports whether p is a known package.
func (p PackageType) Valid() bool {
	switch p {
	case PackageBasic, PackageAdvanced, PackageFull:
		return true
	}
	return false
}

// User is the credential store record for a registered account.
// Email is the login identifier and is stored normalized.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	DOB          *time.Time
	Address      string
	Role         Role
	Package      *PackageType
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity projects the fields of the record the auth pipeline needs.
func (u *User) Identity() *Identity {
	return &Identity{SubjectID: u.Email, Role: u.Role, Enabled: u.Enabled}
}
