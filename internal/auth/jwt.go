package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type JWTAuthenticator struct {
	secret        string
	refreshSecret string
	aud           string
	iss           string
	accessExp     time.Duration
	refreshExp    time.Duration
	now           func() time.Time
}

func NewJWTAuthenticator(secret, refreshSecret, aud, iss string, accessExp, refreshExp time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:        secret,
		refreshSecret: refreshSecret,
		aud:           aud,
		iss:           iss,
		accessExp:     accessExp,
		refreshExp:    refreshExp,
		now:           time.Now,
	}
}

// AccessTokenTTL is reported to clients as expiresIn.
func (a *JWTAuthenticator) AccessTokenTTL() time.Duration {
	return a.accessExp
}

// GenerateTokens generates both access and refresh tokens
func (a *JWTAuthenticator) GenerateTokens(id Identity) (string, string, error) {
	if id.UID == "" {
		return "", "", errors.New("identity has no uid")
	}
	now := a.now()

	access := claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    a.iss,
			Audience:  jwt.ClaimStrings{a.aud},
			ExpiresAt: jwt.NewNumericDate(now.Add(a.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	refresh := claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(), // two refreshes within a second must still differ
			Subject:   id.UID,
			Issuer:    a.iss,
			Audience:  jwt.ClaimStrings{a.aud},
			ExpiresAt: jwt.NewNumericDate(now.Add(a.refreshExp)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	accessToken, err := a.generateTokenWithClaims(access, a.secret)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := a.generateTokenWithClaims(refresh, a.refreshSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (a *JWTAuthenticator) generateTokenWithClaims(c jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyAccessToken validates the access token
func (a *JWTAuthenticator) VerifyAccessToken(token string) (*Identity, error) {
	return a.verify(token, a.secret)
}

// VerifyRefreshToken validates the refresh token
func (a *JWTAuthenticator) VerifyRefreshToken(token string) (*Identity, error) {
	return a.verify(token, a.refreshSecret)
}

func (a *JWTAuthenticator) verify(token, secret string) (*Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.iss),
		jwt.WithAudience(a.aud),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Identity{UID: c.Subject, Email: c.Email, Role: c.Role}, nil
}
