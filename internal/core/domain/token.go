package domain

import "time"

// TokenType is reported to clients alongside every issued access token.
const TokenType = "bearer"

// AccessToken is a signed bearer credential together with the claims it carries.
type AccessToken struct {
	Token     string
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

// TokenClaims are the identity claims recovered from a valid token.
type TokenClaims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}
