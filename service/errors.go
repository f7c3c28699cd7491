package service

import "errors"

// Business-rule rejections. These are expected outcomes surfaced to the
// caller for user feedback, checked with errors.Is, and never logged as
// errors.
var (
	ErrAuctionNotFound     = errors.New("auction not found")
	ErrAuctionNotActive    = errors.New("auction is not active")
	ErrBidTooLow           = errors.New("bid amount too low")
	ErrBidPriceMismatch    = errors.New("bid does not match the current dutch price")
	ErrInsufficientBalance = errors.New("insufficient XTR balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrUserNotFound        = errors.New("user not found")
)

// ErrInvalidSpec rejects an auction specification with missing or
// out-of-range type-specific parameters.
var ErrInvalidSpec = errors.New("invalid auction spec")
