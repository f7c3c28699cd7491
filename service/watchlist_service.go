package service

import (
	"context"
	"fmt"

	"starbid/models"
)

type watchlistService struct {
	uowFactory UnitOfWorkFactory
}

// NewWatchlistService creates a new watchlist service
func NewWatchlistService(uowFactory UnitOfWorkFactory) WatchlistService {
	return &watchlistService{
		uowFactory: uowFactory,
	}
}

// Watch puts an auction on the user's watchlist
func (s *watchlistService) Watch(ctx context.Context, userID, auctionID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().GetByID(ctx, auctionID)
	if err != nil {
		return fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return ErrAuctionNotFound
	}

	watching, err := uow.WatchlistRepository().Contains(ctx, userID, auctionID)
	if err != nil {
		return fmt.Errorf("failed to check watchlist: %w", err)
	}
	if watching {
		return nil
	}

	if err := uow.WatchlistRepository().Add(ctx, userID, auctionID); err != nil {
		return fmt.Errorf("failed to add to watchlist: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Unwatch takes an auction off the user's watchlist
func (s *watchlistService) Unwatch(ctx context.Context, userID, auctionID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.WatchlistRepository().Remove(ctx, userID, auctionID); err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns the auctions on the user's watchlist
func (s *watchlistService) List(ctx context.Context, userID int64) ([]*models.Auction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auctions, err := uow.WatchlistRepository().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	return auctions, nil
}
