// Package identity verifies assertions issued by the external identity
// provider. A verified assertion is exchanged once for a backend session.
package identity

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidAssertion = errors.New("invalid identity assertion")

type Identity struct {
	Email    string
	Name     string
	Picture  string
	Verified bool
}

type assertionClaims struct {
	jwt.RegisteredClaims

	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type Verifier struct {
	issuer   string
	audience string
	hmacKey  []byte
	rsaKey   *rsa.PublicKey
}

// NewVerifier accepts an HMAC shared secret, a PEM encoded RSA public key,
// or both.
func NewVerifier(issuer, audience, hmacSecret, rsaPublicKeyPEM string) (*Verifier, error) {
	v := &Verifier{issuer: issuer, audience: audience}
	if hmacSecret != "" {
		v.hmacKey = []byte(hmacSecret)
	}
	if strings.TrimSpace(rsaPublicKeyPEM) != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(rsaPublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("jwt.ParseRSAPublicKeyFromPEM -> %w", err)
		}
		v.rsaKey = key
	}
	if v.hmacKey == nil && v.rsaKey == nil {
		return nil, errors.New("identity verifier needs a key")
	}

	return v, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.hmacKey != nil {
			return v.hmacKey, nil
		}
	case *jwt.SigningMethodRSA:
		if v.rsaKey != nil {
			return v.rsaKey, nil
		}
	}

	return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
}

func (v *Verifier) Verify(assertion string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "RS256"}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &assertionClaims{}
	if _, err := jwt.ParseWithClaims(assertion, claims, v.keyFunc, opts...); err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidAssertion, err)
	}
	if claims.Email == "" {
		return Identity{}, fmt.Errorf("%w: missing email", ErrInvalidAssertion)
	}

	return Identity{
		Email:    strings.ToLower(claims.Email),
		Name:     claims.Name,
		Picture:  claims.Picture,
		Verified: claims.EmailVerified,
	}, nil
}
