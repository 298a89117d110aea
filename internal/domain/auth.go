package domain

import "time"

// Identity is an authenticated principal as seen by the auth pipeline.
// It is rebuilt from the credential store on every request.
type Identity struct {
	SubjectID string
	Role      Role
	Enabled   bool
}

// HasRole reports whether the identity holds any of the given roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, role := range roles {
		if i.Role == role {
			return true
		}
	}
	return false
}

// Token is a minted bearer credential and the claims it was signed with.
type Token struct {
	Value     string
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
