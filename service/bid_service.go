package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"starbid/events"
	"starbid/models"

	"github.com/jackc/pgx/v5/pgconn"
)

type bidService struct {
	uowFactory UnitOfWorkFactory
}

// NewBidService creates a new bid service
func NewBidService(uowFactory UnitOfWorkFactory) BidService {
	return &bidService{
		uowFactory: uowFactory,
	}
}

// PlaceBid validates a bid against the auction's type-specific rules and
// applies all resulting mutations atomically. The auction row is locked for
// the duration of the transaction, so concurrent bids on the same auction
// serialize and the loser of a race is re-evaluated against the committed
// price. A lost serialization race is retried once against fresh state.
func (s *bidService) PlaceBid(ctx context.Context, auctionID, bidderID, amount int64) (*models.BidReceipt, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	receipt, err := s.placeBidOnce(ctx, auctionID, bidderID, amount)
	if err != nil && isSerializationFailure(err) {
		receipt, err = s.placeBidOnce(ctx, auctionID, bidderID, amount)
	}
	return receipt, err
}

func (s *bidService) placeBidOnce(ctx context.Context, auctionID, bidderID, amount int64) (*models.BidReceipt, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The row lock is the critical section: current price and active flag
	// are re-read under the same lock used to apply mutations.
	auction, err := uow.AuctionRepository().GetByIDForUpdate(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	if auction == nil {
		return nil, ErrAuctionNotFound
	}
	if !auction.IsActive {
		return nil, ErrAuctionNotActive
	}

	now := time.Now().UTC()
	closesAuction := false
	newPrice := auction.CurrentPrice

	switch auction.Type {
	case models.AuctionTypeEnglish, models.AuctionTypeEverlasting:
		if amount <= auction.CurrentPrice {
			return nil, ErrBidTooLow
		}
		newPrice = amount

	case models.AuctionTypeClosed:
		// Sealed bids compete against the starting price only; the
		// current price is not revealed or updated until close.
		if amount <= auction.StartingPrice {
			return nil, ErrBidTooLow
		}

	case models.AuctionTypeDutch:
		livePrice := auction.LiveDutchPrice(now)
		if livePrice <= 0 {
			// Unsellable: the price decayed to zero before anyone
			// accepted. Close without a winner rather than wait for
			// the decay pass.
			if err := uow.AuctionRepository().Deactivate(ctx, auctionID); err != nil {
				return nil, fmt.Errorf("failed to deactivate decayed auction: %w", err)
			}
			if err := uow.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit transaction: %w", err)
			}
			return nil, ErrAuctionNotActive
		}
		if amount != livePrice {
			return nil, ErrBidPriceMismatch
		}
		newPrice = amount
		closesAuction = true

	default:
		return nil, fmt.Errorf("unknown auction type %q", auction.Type)
	}

	// Funds are checked against the live balance but not debited; the
	// winner pays at close.
	bidder, err := uow.UserRepository().GetByID(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bidder: %w", err)
	}
	if bidder == nil {
		return nil, ErrUserNotFound
	}
	if bidder.XTRBalance < amount {
		return nil, ErrInsufficientBalance
	}

	bid := &models.Bid{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
	}
	if err := uow.BidRepository().Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to create bid: %w", err)
	}

	if newPrice != auction.CurrentPrice {
		if err := uow.AuctionRepository().SetCurrentPrice(ctx, auctionID, newPrice); err != nil {
			return nil, fmt.Errorf("failed to update price: %w", err)
		}
	}

	if closesAuction {
		// A matching dutch bid ends the auction on the spot.
		if err := uow.AuctionRepository().Deactivate(ctx, auctionID); err != nil {
			return nil, fmt.Errorf("failed to deactivate auction: %w", err)
		}
	}

	uow.EventBus().Publish(events.BidPlacedEvent{
		AuctionID: auctionID,
		BidID:     bid.ID,
		BidderID:  bidderID,
		Amount:    amount,
		NewPrice:  newPrice,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BidReceipt{
		Bid:           bid,
		NewPrice:      newPrice,
		AuctionClosed: closesAuction,
	}, nil
}

// ListByBidder returns a user's bids, newest first
func (s *bidService) ListByBidder(ctx context.Context, bidderID int64, limit int) ([]*models.Bid, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bids, err := uow.BidRepository().ListByBidder(ctx, bidderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}

// isSerializationFailure reports whether the error is a Postgres
// serialization or deadlock failure worth one retry against fresh state.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
