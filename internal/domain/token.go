package domain

import "time"

// SessionClaim is the identity carried inside a bearer token.
type SessionClaim struct {
	Subject   string
	Email     string
	Role      Role
	CompanyID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Principal is the authenticated caller after the session was re-validated
// against the current user and company records.
type Principal struct {
	UserID    string
	Email     string
	Role      Role
	CompanyID string
	Company   Company
}
