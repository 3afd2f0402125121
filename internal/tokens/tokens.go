// Package tokens issues the signed grant a caller receives once a login
// reaches a terminal success, either directly on ACCEPT or after the step-up
// code verified.
package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
)

type GrantClaims struct {
	Subject string `json:"sub_handle"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	maxAge time.Duration
}

// Issue signs a grant binding the authenticated subject.
func (i *Issuer) Issue(subject string) (string, error) {
	now := time.Now()
	claims := GrantClaims{
		Subject: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses a grant and returns the bound subject.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	var claims GrantClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}

func NewIssuer(secret string, maxAge time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		maxAge: maxAge,
	}
}
