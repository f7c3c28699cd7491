package web

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"starbid/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// PaymentHandler processes instant payment notifications from the external
// payment provider and credits the paid XTR to the user's wallet.
type PaymentHandler struct {
	userService service.UserService
	secretKey   string
}

// NewPaymentHandler creates the payment webhook handler
func NewPaymentHandler(userService service.UserService, secretKey string) *PaymentHandler {
	return &PaymentHandler{
		userService: userService,
		secretKey:   secretKey,
	}
}

// Webhook handles POST /payments/webhook. The provider posts form fields and
// a sha1_hash signature: HMAC-SHA1 over the remaining fields sorted by name
// and joined as "key=value" pairs with "&".
func (h *PaymentHandler) Webhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid form data: %w", err), "invalid form data")
		return
	}

	fields := make(map[string]string, len(c.Request.PostForm))
	for key := range c.Request.PostForm {
		fields[key] = c.Request.PostForm.Get(key)
	}

	signature := fields["sha1_hash"]
	delete(fields, "sha1_hash")
	if signature == "" {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("missing signature"), "missing signature")
		log.Error("Payment notification without signature")
		return
	}

	if !h.verifySignature(fields, signature) {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid signature"), "invalid signature")
		log.Error("Payment notification with invalid signature")
		return
	}

	if fields["status"] != "success" {
		log.WithField("status", fields["status"]).Info("Ignoring non-success payment status")
		jsonResponse(c, http.StatusOK, nil, "ignored")
		return
	}

	userID, err := strconv.ParseInt(fields["metadata[user_id]"], 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("missing or invalid user id"), "missing data")
		return
	}
	amount, err := strconv.ParseInt(fields["metadata[amount]"], 10, 64)
	if err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("missing or invalid amount"), "missing data")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithFields(log.Fields{
			"userID": userID,
			"error":  err,
		}).Error("Payment notification for unknown user")
		return
	}

	if _, err := h.userService.TopUp(ctx, user.TelegramID, user.Username, amount); err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithFields(log.Fields{
			"userID": userID,
			"amount": amount,
			"error":  err,
		}).Error("Failed to credit payment")
		return
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"amount": amount,
	}).Info("Payment credited")

	jsonResponse(c, http.StatusOK, nil, "ok")
}

func (h *PaymentHandler) verifySignature(fields map[string]string, signature string) bool {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	mac := hmac.New(sha1.New, []byte(h.secretKey))
	mac.Write([]byte(strings.Join(pairs, "&")))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
