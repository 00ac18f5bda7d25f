package domain

import "time"

// User represents an identity that can authenticate within a company.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	CompanyID    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Company is populated by lookups that join the owning company.
	Company *Company
}

// UserFilter narrows user listings.
type UserFilter struct {
	CompanyID string
}

// UserPatch carries the mutable user fields. Nil means unchanged.
type UserPatch struct {
	Email     *string
	FirstName *string
	LastName  *string
	Role      *Role
	IsActive  *bool
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Email == nil && p.FirstName == nil && p.LastName == nil && p.Role == nil && p.IsActive == nil
}
