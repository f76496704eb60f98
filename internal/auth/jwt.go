package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in tokens.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	errInvalidToken   = errors.New("invalid token")
	errIssuerMismatch = errors.New("issuer mismatch")
	errUnknownRole    = errors.New("unknown role")
)

// Token is a signed access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Claims represents JWT payload. Subject is the teacher or student id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func validRole(role string) bool {
	return role == RoleTeacher || role == RoleStudent
}

// Issue signs an HS256 access token for subject acting as role.
func Issue(subject, role, issuer, key string, ttl time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, errors.New("subject required")
	}
	if !validRole(role) {
		return Token{}, errUnknownRole
	}
	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresAt: exp}, nil
}

// Parse validates a token and returns claims.
func Parse(tokenStr, key, issuer string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errInvalidToken
	}
	if issuer != "" && claims.Issuer != issuer {
		return Claims{}, errIssuerMismatch
	}
	if claims.Subject == "" || !validRole(claims.Role) {
		return Claims{}, errInvalidToken
	}
	return *claims, nil
}
