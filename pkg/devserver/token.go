package devserver

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenSigner issues and checks the HS256 credentials the devserver hands
// out. Role claims are issued with the ROLE_ namespace prefix, matching what
// the production backend's security stack emits, so the client's stripping
// path gets exercised against this stub too.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}
}

func (ts *TokenSigner) Issue(username, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":  uuid.NewString(),
		"sub":  username,
		"role": "ROLE_" + role,
		"iat":  now.Unix(),
		"exp":  now.Add(ts.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
}

// Validate verifies the signature and expiry and returns the subject plus
// the un-prefixed role.
func (ts *TokenSigner) Validate(tokenString string) (username, role string, err error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}

	username, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	if len(role) > 5 && role[:5] == "ROLE_" {
		role = role[5:]
	}
	return username, role, nil
}
