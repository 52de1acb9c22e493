package auth

import "errors"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// IsPrivileged reports whether the identity may act on resources it does not own.
func (i Identity) IsPrivileged() bool {
	return i.Role == RoleAdmin
}

type Authenticator interface {
	GenerateTokens(id Identity) (string, string, error)
	VerifyAccessToken(token string) (*Identity, error)
	VerifyRefreshToken(token string) (*Identity, error)
}
