package service

import (
	"context"
	"fmt"
	"time"

	"starbid/events"
	"starbid/models"
)

type auctionService struct {
	uowFactory UnitOfWorkFactory
}

// NewAuctionService creates a new auction service
func NewAuctionService(uowFactory UnitOfWorkFactory) AuctionService {
	return &auctionService{
		uowFactory: uowFactory,
	}
}

// CreateAuction validates the spec and lists a new auction
func (s *auctionService) CreateAuction(ctx context.Context, spec models.AuctionSpec, creatorID int64) (*models.Auction, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	creator, err := uow.UserRepository().GetByID(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return nil, ErrUserNotFound
	}

	now := time.Now().UTC()
	auction := &models.Auction{
		Title:         spec.Title,
		Description:   spec.Description,
		Type:          spec.Type,
		CreatorID:     creatorID,
		StartingPrice: spec.StartingPrice,
		CurrentPrice:  spec.StartingPrice,
		EndTime:       spec.EndTime,
		IsActive:      true,
	}

	switch spec.Type {
	case models.AuctionTypeEverlasting:
		auction.EndTime = models.EverlastingEndTime
	case models.AuctionTypeDutch:
		auction.CurrentDutchPrice = spec.StartingPrice
		auction.DutchPriceDecrement = spec.DutchPriceDecrement
		auction.DutchIntervalSeconds = spec.DutchIntervalSeconds
		auction.DutchStartedAt = &now
	}

	if err := uow.AuctionRepository().Create(ctx, auction); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	uow.EventBus().Publish(events.AuctionCreatedEvent{
		AuctionID:   auction.ID,
		CreatorID:   creatorID,
		AuctionType: auction.Type,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return auction, nil
}

func validateSpec(spec models.AuctionSpec) error {
	if spec.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidSpec)
	}
	if spec.StartingPrice <= 0 {
		return fmt.Errorf("%w: starting price must be positive", ErrInvalidSpec)
	}

	switch spec.Type {
	case models.AuctionTypeEnglish, models.AuctionTypeClosed:
		if spec.EndTime.IsZero() {
			return fmt.Errorf("%w: end time is required", ErrInvalidSpec)
		}
	case models.AuctionTypeDutch:
		if spec.EndTime.IsZero() {
			return fmt.Errorf("%w: end time is required", ErrInvalidSpec)
		}
		if spec.DutchPriceDecrement <= 0 {
			return fmt.Errorf("%w: dutch price decrement must be positive", ErrInvalidSpec)
		}
		if spec.DutchIntervalSeconds <= 0 {
			return fmt.Errorf("%w: dutch interval must be positive", ErrInvalidSpec)
		}
	case models.AuctionTypeEverlasting:
		// End time is replaced with the sentinel; nothing extra required.
	default:
		return fmt.Errorf("%w: unknown auction type %q", ErrInvalidSpec, spec.Type)
	}

	return nil
}

// GetAuction retrieves an auction by ID
func (s *auctionService) GetAuction(ctx context.Context, id int64) (*models.Auction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}
	return auction, nil
}

// ListActive returns all active auctions
func (s *auctionService) ListActive(ctx context.Context) ([]*models.Auction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auctions, err := uow.AuctionRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active auctions: %w", err)
	}
	return auctions, nil
}

// ListEnded returns closed auctions, paged
func (s *auctionService) ListEnded(ctx context.Context, limit, offset int) ([]*models.Auction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auctions, err := uow.AuctionRepository().ListEnded(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ended auctions: %w", err)
	}
	return auctions, nil
}

// ListByCreator returns a user's own auctions
func (s *auctionService) ListByCreator(ctx context.Context, creatorID int64) ([]*models.Auction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auctions, err := uow.AuctionRepository().ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions by creator: %w", err)
	}
	return auctions, nil
}

// GetBidHistory returns the top bids on an auction by amount descending.
// For closed auctions the history stays hidden while bidding is open.
func (s *auctionService) GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*models.Bid, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().GetByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}

	// Sealed bids are revealed only once the auction has closed.
	if auction.Type == models.AuctionTypeClosed && auction.IsActive {
		return []*models.Bid{}, nil
	}

	bids, err := uow.BidRepository().ListByAuction(ctx, auctionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}
