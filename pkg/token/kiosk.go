package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// KioskSigner issues and verifies bearer tokens embedded in kiosk stream URLs.
// Format: base64(kioskID).expiryUnix.hexHMAC
type KioskSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewKioskSigner constructs a signer with the provided secret and TTL.
func NewKioskSigner(secret string, ttl time.Duration) *KioskSigner {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &KioskSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Generate returns a signed token naming the kiosk screen.
func (s *KioskSigner) Generate(kioskID string) (string, time.Time, error) {
	if strings.TrimSpace(kioskID) == "" {
		return "", time.Time{}, fmt.Errorf("kiosk id required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	encodedID := base64.RawURLEncoding.EncodeToString([]byte(kioskID))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	token := strings.Join([]string{encodedID, ts, s.sign(encodedID, ts)}, ".")
	return token, expiresAt, nil
}

// Parse validates a token and returns the kiosk id and expiry.
func (s *KioskSigner) Parse(token string) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, fmt.Errorf("invalid token format")
	}
	encodedID, ts, signature := parts[0], parts[1], parts[2]

	if !hmac.Equal([]byte(s.sign(encodedID, ts)), []byte(signature)) {
		return "", time.Time{}, fmt.Errorf("invalid token signature")
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid timestamp")
	}
	expiresAt := time.Unix(expUnix, 0).UTC()
	if s.now().After(expiresAt) {
		return "", time.Time{}, fmt.Errorf("token expired")
	}
	rawID, err := base64.RawURLEncoding.DecodeString(encodedID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("decode kiosk id: %w", err)
	}
	return string(rawID), expiresAt, nil
}

func (s *KioskSigner) sign(encodedID, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encodedID + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
