package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier resolves bearer tokens issued by the identity provider into
// callers. Only HS256-family signatures are accepted.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// GenerateJWT issues a token for userID. Used by tests and local tooling; in
// production tokens come from the identity provider.
func (v *TokenVerifier) GenerateJWT(userID string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// ValidateJWT returns the caller named by the token's subject claim.
func (v *TokenVerifier) ValidateJWT(tokenString string) (Caller, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Caller{}, err
	}

	if !token.Valid {
		return Caller{}, fmt.Errorf("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return Caller{}, fmt.Errorf("invalid subject claim: %w", err)
	}
	if sub == "" {
		return Caller{}, fmt.Errorf("token has no subject")
	}
	return NewCaller(sub), nil
}
