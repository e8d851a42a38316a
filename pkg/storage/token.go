package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TokenSigner issues HMAC-signed download tokens for archived exports. A
// token carries the archived file name and an expiry; the signature binds
// both, so a token grants access to exactly one file for a bounded time.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenSigner builds a signer. A non-positive TTL falls back to 24h.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl}
}

// Sign returns a token for the named file plus the expiry it encodes.
func (s *TokenSigner) Sign(name string) (string, time.Time, error) {
	if name == "" {
		return "", time.Time{}, fmt.Errorf("file name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}

	expiresAt := time.Now().Add(s.ttl)
	encodedName := base64.RawURLEncoding.EncodeToString([]byte(name))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	token := encodedName + "." + exp + "." + s.signature(encodedName, exp)
	return token, expiresAt, nil
}

// Parse verifies a token and returns the file name it grants access to.
// allowExpired skips the expiry check, for sweep tooling.
func (s *TokenSigner) Parse(token string, allowExpired bool) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, fmt.Errorf("malformed download token")
	}
	encodedName, exp, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(s.signature(encodedName, exp)), []byte(signature)) {
		return "", time.Time{}, fmt.Errorf("download token signature mismatch")
	}

	name, err := base64.RawURLEncoding.DecodeString(encodedName)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("decode token file name: %w", err)
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("decode token expiry: %w", err)
	}
	expiresAt := time.Unix(expUnix, 0)

	if !allowExpired && time.Now().After(expiresAt) {
		return "", time.Time{}, fmt.Errorf("download token expired")
	}
	return string(name), expiresAt, nil
}

func (s *TokenSigner) signature(encodedName, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encodedName + "|" + exp))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
