package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the identity provider asserts about a caller. The
// email is the stable key into the user store; name is advisory and only
// used when provisioning a first-login user.
type TokenClaims struct {
	Email string
	Name  string
}

// ParseTokenFromRequest extracts and verifies the bearer token, returning
// the asserted claims.
func ParseTokenFromRequest(r *http.Request, secret []byte) (TokenClaims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return TokenClaims{}, fmt.Errorf("missing token")
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return TokenClaims{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, fmt.Errorf("invalid token claims")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return TokenClaims{}, fmt.Errorf("token has no email claim")
	}
	name, _ := claims["name"].(string)

	return TokenClaims{Email: email, Name: name}, nil
}

// NewToken signs a bearer token for the given claims. Used by operational
// tooling and tests; the production identity provider issues its own.
func NewToken(secret []byte, claims TokenClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": claims.Email,
		"name":  claims.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}
