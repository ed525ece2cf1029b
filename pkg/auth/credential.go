package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusclinic/console/pkg/common/models"
)

// rolePrefix is the namespace marker some backends (Spring Security) prepend
// to role claims. A single leading occurrence is stripped.
const rolePrefix = "ROLE_"

// roleExtractor pulls a role out of the token payload. Extractors run in
// order; the first hit wins.
type roleExtractor func(jwt.MapClaims) (string, bool)

var roleExtractors = []roleExtractor{
	func(claims jwt.MapClaims) (string, bool) {
		return claimString(claims, "role")
	},
	func(claims jwt.MapClaims) (string, bool) {
		return firstOfArray(claims, "roles")
	},
	func(claims jwt.MapClaims) (string, bool) {
		return firstOfArray(claims, "authorities")
	},
	func(claims jwt.MapClaims) (string, bool) {
		return claimString(claims, "auth")
	},
}

// DecodeCredential decodes the payload segment of a bearer credential into a
// session. The signature is deliberately NOT verified: the decoded role is a
// UI hint only, and the backend independently enforces every permission on
// every call.
func DecodeCredential(token string) (models.Session, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return models.Session{}, fmt.Errorf("decode credential: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.Session{}, fmt.Errorf("decode credential: unexpected claims type")
	}

	role := models.RoleUser
	for _, extract := range roleExtractors {
		if extracted, ok := extract(claims); ok {
			role = extracted
			break
		}
	}
	if len(role) > len(rolePrefix) && role[:len(rolePrefix)] == rolePrefix {
		role = role[len(rolePrefix):]
	}

	username, ok := claimString(claims, "sub")
	if !ok {
		username, _ = claimString(claims, "username")
	}

	return models.Session{Username: username, Role: role}, nil
}

func claimString(claims jwt.MapClaims, key string) (string, bool) {
	value, ok := claims[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func firstOfArray(claims jwt.MapClaims, key string) (string, bool) {
	values, ok := claims[key].([]interface{})
	if !ok || len(values) == 0 {
		return "", false
	}
	first, ok := values[0].(string)
	if !ok || first == "" {
		return "", false
	}
	return first, true
}
