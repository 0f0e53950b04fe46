package utils // package utils provides helper functions for token creation and hashing

import (
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	apperrors "messagely/pkg/errors"
)

// AccessToken represents a signed JWT session token along with its expiry.
// The Token field contains the JWT string. Tokens are self-contained: the
// server keeps no session state, and a token stays valid until it expires
// or the signing secret is rotated. Logout is client-side discard.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT asserting a username. It
// takes the signing secret, the username, and a TTL in minutes. The JWT
// carries only the subject (sub), expiration (exp) and issued at (iat)
// claims, never the password hash or any other secret.
func NewAccessToken(secret, username string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": username,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates a token and returns the username
// it asserts. Malformed tokens, bad signatures, expired tokens and tokens
// signed with a non-HMAC algorithm all yield ErrInvalidToken.
func VerifyAccessToken(secret, raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", apperrors.ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperrors.ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", apperrors.ErrInvalidToken
	}
	return sub, nil
}
