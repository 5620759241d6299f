package utils // package utils provides helpers for session tokens and hashing

import (
	"crypto/rand"   // secure random generation for session keys
	"crypto/sha256" // SHA-256 hashing of session keys
	"encoding/hex"  // hex encoding of keys and digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for the bearer envelope
)

// SessionToken is the credential pair produced at login. Raw is the
// random session key; Bearer is the signed JWT handed to the client,
// which carries the key in its `sid` claim. The database stores only
// the SHA-256 hash of Raw.
type SessionToken struct {
	Raw    string // random session key (hex)
	Bearer string // signed HS256 JWT: sub=username, sid=Raw, iat
}

// ErrInvalidToken is returned when a bearer token fails signature
// verification or does not carry the expected claims.
var ErrInvalidToken = errors.New("invalid token")

// NewSessionToken generates a fresh session key and wraps it in a
// signed HS256 JWT. The token intentionally carries no `exp` claim:
// sessions do not expire on a timer, they end only when the server
// side session record is revoked at logout.
func NewSessionToken(secret, username string) (SessionToken, error) {
	raw, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return SessionToken{}, err
	}
	claims := jwt.MapClaims{
		"sub": username,
		"sid": raw,
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Raw: raw, Bearer: signed}, nil
}

// ParseSessionToken verifies the bearer JWT and extracts the username
// and raw session key. Callers must still check that the session the
// key identifies is active.
func ParseSessionToken(secret, bearer string) (username, raw string, err error) {
	tok, err := jwt.Parse(bearer, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", "", ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	username, _ = claims["sub"].(string)
	raw, _ = claims["sid"].(string)
	if username == "" || raw == "" {
		return "", "", ErrInvalidToken
	}
	return username, raw, nil
}

// HashSessionRaw returns the SHA-256 hash of the raw session key as a
// hex string. Storing only the hash keeps stolen database rows from
// being replayed as live sessions.
func HashSessionRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
