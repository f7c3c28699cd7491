package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"starbid/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxLoginAge is how long Telegram login-widget payloads stay valid
const maxLoginAge = 24 * time.Hour

// AuthHandler verifies Telegram login-widget payloads and issues sessions
type AuthHandler struct {
	userService service.UserService
	sessions    *sessionCodec
	botToken    string
}

// NewAuthHandler creates the authentication handler
func NewAuthHandler(userService service.UserService, sessions *sessionCodec, botToken string) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		botToken:    botToken,
	}
}

// TelegramLogin handles POST /auth/telegram. The request body is the payload
// the Telegram login widget posts: user fields plus auth_date and hash.
func (h *AuthHandler) TelegramLogin(c *gin.Context) {
	var payload map[string]string
	if err := c.ShouldBindJSON(&payload); err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid request payload: %w", err), "invalid request payload")
		return
	}

	if err := h.verify(payload, time.Now()); err != nil {
		jsonError(c, http.StatusUnauthorized, err, "invalid authentication")
		log.WithField("error", err).Warn("Telegram login rejected")
		return
	}

	telegramID, err := strconv.ParseInt(payload["id"], 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid telegram id"), "invalid request payload")
		return
	}

	user, err := h.userService.GetOrCreateByTelegramID(c.Request.Context(), telegramID, payload["username"])
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithFields(log.Fields{
			"telegramID": telegramID,
			"error":      err,
		}).Error("Failed to log in Telegram user")
		return
	}

	token := h.sessions.Encode(user.ID, time.Now())
	c.SetCookie(sessionCookieName, token, int(sessionTTL.Seconds()), "/", "", false, true)

	jsonResponse(c, http.StatusOK, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"xtr_balance": user.XTRBalance,
	}, "login successful")
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	jsonResponse(c, http.StatusOK, nil, "logged out")
}

// verify checks the widget payload against Telegram's signing scheme: the
// hash field is HMAC-SHA256 over the sorted "key=value" lines of the other
// fields, keyed with SHA256 of the bot token.
func (h *AuthHandler) verify(payload map[string]string, now time.Time) error {
	hash := payload["hash"]
	if hash == "" {
		return fmt.Errorf("missing hash")
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+payload[k])
	}
	checkString := strings.Join(lines, "\n")

	secret := sha256.Sum256([]byte(h.botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hash)) {
		return fmt.Errorf("signature mismatch")
	}

	authDate, err := strconv.ParseInt(payload["auth_date"], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid auth_date")
	}
	if now.Sub(time.Unix(authDate, 0)) > maxLoginAge {
		return fmt.Errorf("login data expired")
	}

	return nil
}
