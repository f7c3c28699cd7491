package web

import (
	"errors"
	"net/http"

	"starbid/service"

	"github.com/gin-gonic/gin"
)

// jsonResponse sends a structured JSON response
func jsonResponse(c *gin.Context, status int, data any, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

// jsonError sends a structured error response
func jsonError(c *gin.Context, status int, err error, message string) {
	c.JSON(status, gin.H{
		"status":  status,
		"message": message,
		"error":   err.Error(),
	})
}

// mapServiceError maps domain errors to an HTTP status code and message
func mapServiceError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrAuctionNotActive):
		return http.StatusConflict, "auction is no longer active"
	case errors.Is(err, service.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, service.ErrBidPriceMismatch):
		return http.StatusConflict, "bid must match the current price"
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusPaymentRequired, "insufficient balance"
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, service.ErrInvalidSpec):
		return http.StatusBadRequest, "invalid auction parameters"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
