package service

import (
	"context"
	"fmt"

	"starbid/models"
)

type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance int64) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// GetOrCreateByTelegramID retrieves an existing user or creates a new one
// with the configured starting balance.
func (s *userService) GetOrCreateByTelegramID(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	// Database unique constraint on telegram_id prevents duplicate users
	user, err = uow.UserRepository().Create(ctx, telegramID, username, s.startingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	history := &models.BalanceHistory{
		UserID:          user.ID,
		BalanceBefore:   0,
		BalanceAfter:    s.startingBalance,
		ChangeAmount:    s.startingBalance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"username":    username,
			"telegram_id": telegramID,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// GetByID retrieves a user by internal ID
func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetBalanceHistory returns the user's balance changes, newest first
func (s *userService) GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

// TopUp credits XTR to a user's wallet once per confirmed payment event.
// Idempotency of the triggering event is the caller's responsibility; the
// credit is applied exactly once per call.
func (s *userService) TopUp(ctx context.Context, telegramID int64, username string, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		// First payment from an unknown Telegram ID creates the account
		// with the payment amount as its balance.
		user, err = uow.UserRepository().Create(ctx, telegramID, username, amount)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}

		history := &models.BalanceHistory{
			UserID:          user.ID,
			BalanceBefore:   0,
			BalanceAfter:    amount,
			ChangeAmount:    amount,
			TransactionType: models.TransactionTypeTopUp,
			TransactionMetadata: map[string]any{
				"telegram_id":     telegramID,
				"created_account": true,
			},
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, fmt.Errorf("failed to record top-up: %w", err)
		}
	} else {
		if err := uow.UserRepository().AddBalance(ctx, user.ID, amount); err != nil {
			return nil, fmt.Errorf("failed to credit balance: %w", err)
		}

		history := &models.BalanceHistory{
			UserID:          user.ID,
			BalanceBefore:   user.XTRBalance,
			BalanceAfter:    user.XTRBalance + amount,
			ChangeAmount:    amount,
			TransactionType: models.TransactionTypeTopUp,
			TransactionMetadata: map[string]any{
				"telegram_id": telegramID,
			},
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, fmt.Errorf("failed to record top-up: %w", err)
		}
		user.XTRBalance += amount
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}
