package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for cookies that fail signature or expiry checks.
var ErrInvalidToken = errors.New("invalid session token")

// Codec signs session ids into cookie values and back.
type Codec struct {
	secret []byte
}

// NewCodec returns a codec using HS256 with secret.
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Encode returns a signed token carrying id that expires after maxAge.
func (c *Codec) Encode(id string, maxAge time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": id,
		"iat": now.Unix(),
		"exp": now.Add(maxAge).Unix(),
	})
	return token.SignedString(c.secret)
}

// Decode verifies value and returns the session id inside it.
func (c *Codec) Decode(value string) (string, error) {
	token, err := jwt.Parse(value, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", ErrInvalidToken
	}
	return sid, nil
}
