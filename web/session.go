package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	sessionCookieName = "starbid_session"
	sessionTTL        = 7 * 24 * time.Hour
)

// sessionCodec signs and verifies session cookie values. A token carries the
// user ID and an expiry, bound together by an HMAC-SHA256 signature.
type sessionCodec struct {
	secret []byte
}

func newSessionCodec(secret string) *sessionCodec {
	return &sessionCodec{secret: []byte(secret)}
}

// Encode produces a signed token of the form "<userID>.<expiryUnix>.<sig>"
func (s *sessionCodec) Encode(userID int64, now time.Time) string {
	expiry := now.Add(sessionTTL).Unix()
	payload := fmt.Sprintf("%d.%d", userID, expiry)
	return payload + "." + s.sign(payload)
}

// Decode verifies a token and returns the user ID it was issued for
func (s *sessionCodec) Decode(token string, now time.Time) (int64, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed session token")
	}

	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(s.sign(payload)), []byte(parts[2])) {
		return 0, fmt.Errorf("invalid session signature")
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || now.Unix() > expiry {
		return 0, fmt.Errorf("session expired")
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed session token")
	}
	return userID, nil
}

func (s *sessionCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
