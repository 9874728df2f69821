package utils // token creation and validation helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Distinct sentinel errors so callers can tell an expired token from a
// forged or malformed one. Both map to 401, but the response message and
// the retry story differ.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carried by an access token. The subject is the user id; email is
// included so logs and downstream consumers can identify the caller without
// a lookup.
type Claims struct {
	UserID uint64
	Email  string
}

// NewToken builds and signs an HS256 bearer token for a user with an
// absolute expiration ttlHours from now.
func NewToken(secret string, userID uint64, email string, ttlHours int) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     now.Add(time.Duration(ttlHours) * time.Hour).Unix(),
		"iat":     now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// ParseToken validates signature and expiry and returns the embedded claims.
// Expired tokens yield ErrTokenExpired; anything else wrong with the token
// yields ErrTokenInvalid.
func ParseToken(secret, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	uid, ok := mc["user_id"].(float64)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}
	email, _ := mc["email"].(string)
	return Claims{UserID: uint64(uid), Email: email}, nil
}
