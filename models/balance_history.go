package models

import (
	"time"
)

// TransactionType represents the reason for a balance change
type TransactionType string

const (
	TransactionTypeInitial    TransactionType = "initial"
	TransactionTypeTopUp      TransactionType = "top_up"
	TransactionTypeWinPayment TransactionType = "win_payment"
	TransactionTypeSaleIncome TransactionType = "sale_income"
)

// BalanceHistory represents one historical XTR balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UserID              int64           `db:"user_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	CreatedAt           time.Time       `db:"created_at"`
}
