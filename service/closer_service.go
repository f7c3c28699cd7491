package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"starbid/events"
	"starbid/models"

	log "github.com/sirupsen/logrus"
)

type closerService struct {
	uowFactory UnitOfWorkFactory
	notifier   Notifier
}

// NewCloserService creates a new closer service
func NewCloserService(uowFactory UnitOfWorkFactory, notifier Notifier) CloserService {
	return &closerService{
		uowFactory: uowFactory,
		notifier:   notifier,
	}
}

// RunCloserPass finalizes every active auction whose end time has passed.
// Everlasting auctions are never selected. Each auction is resolved in its
// own transaction: a failure on one is logged and the batch continues.
func (s *closerService) RunCloserPass(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.listExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, auction := range expired {
		outcome, err := s.closeAuction(ctx, auction.ID)
		if err != nil {
			log.WithFields(log.Fields{
				"auctionID": auction.ID,
				"error":     err,
			}).Error("Failed to close auction")
			continue
		}
		if outcome == nil {
			// Already closed by a concurrent bid or a previous pass.
			continue
		}
		closed++
		s.notifyOutcome(ctx, outcome)
	}

	if closed > 0 {
		log.WithField("count", closed).Info("Closed expired auctions")
	}
	return closed, nil
}

func (s *closerService) listExpired(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	expired, err := uow.AuctionRepository().GetExpiredActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	return expired, nil
}

// closeAuction deactivates one auction, determines its winner and settles
// payment, all in one transaction. Returns nil when the auction was no
// longer active under the lock.
func (s *closerService) closeAuction(ctx context.Context, auctionID int64) (*models.AuctionOutcome, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().GetByIDForUpdate(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock auction: %w", err)
	}
	if auction == nil || !auction.IsActive {
		return nil, nil
	}
	if auction.Type == models.AuctionTypeEverlasting {
		return nil, nil
	}

	if err := uow.AuctionRepository().Deactivate(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("failed to deactivate auction: %w", err)
	}

	winningBid, err := uow.BidRepository().HighestBid(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to determine winning bid: %w", err)
	}

	outcome := &models.AuctionOutcome{Auction: auction}

	if winningBid != nil {
		outcome.WinningBid = winningBid
		outcome.WinnerID = winningBid.BidderID
		outcome.WinningAmount = winningBid.Amount

		// For sealed auctions this is the moment the price is revealed.
		if auction.CurrentPrice != winningBid.Amount {
			if err := uow.AuctionRepository().SetCurrentPrice(ctx, auctionID, winningBid.Amount); err != nil {
				return nil, fmt.Errorf("failed to set final price: %w", err)
			}
		}

		settled, err := s.settle(ctx, uow, auction, winningBid)
		if err != nil {
			return nil, err
		}
		outcome.Settled = settled
	}

	uow.EventBus().Publish(events.AuctionClosedEvent{
		AuctionID:     auctionID,
		CreatorID:     auction.CreatorID,
		WinnerID:      outcome.WinnerID,
		WinningAmount: outcome.WinningAmount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return outcome, nil
}

// settle moves the winning amount from the winner to the creator. Funds are
// only checked at bid time, so the winner's balance may no longer cover the
// bid; in that case the auction still closes and the shortfall is logged.
func (s *closerService) settle(ctx context.Context, uow UnitOfWork, auction *models.Auction, winningBid *models.Bid) (bool, error) {
	winner, err := uow.UserRepository().GetByID(ctx, winningBid.BidderID)
	if err != nil {
		return false, fmt.Errorf("failed to get winner: %w", err)
	}
	if winner == nil {
		return false, fmt.Errorf("winner %d not found", winningBid.BidderID)
	}

	if err := uow.UserRepository().DeductBalance(ctx, winner.ID, winningBid.Amount); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			log.WithFields(log.Fields{
				"auctionID": auction.ID,
				"winnerID":  winner.ID,
				"amount":    winningBid.Amount,
			}).Warn("Winner cannot cover the winning bid, closing unsettled")
			return false, nil
		}
		return false, fmt.Errorf("failed to debit winner: %w", err)
	}

	if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:          winner.ID,
		BalanceBefore:   winner.XTRBalance,
		BalanceAfter:    winner.XTRBalance - winningBid.Amount,
		ChangeAmount:    -winningBid.Amount,
		TransactionType: models.TransactionTypeWinPayment,
		TransactionMetadata: map[string]any{
			"auction_id": auction.ID,
			"bid_id":     winningBid.ID,
		},
	}); err != nil {
		return false, err
	}

	creator, err := uow.UserRepository().GetByID(ctx, auction.CreatorID)
	if err != nil {
		return false, fmt.Errorf("failed to get creator: %w", err)
	}
	if creator == nil {
		return false, fmt.Errorf("creator %d not found", auction.CreatorID)
	}

	if err := uow.UserRepository().AddBalance(ctx, creator.ID, winningBid.Amount); err != nil {
		return false, fmt.Errorf("failed to credit creator: %w", err)
	}

	if err := RecordBalanceChange(ctx, uow, &models.BalanceHistory{
		UserID:          creator.ID,
		BalanceBefore:   creator.XTRBalance,
		BalanceAfter:    creator.XTRBalance + winningBid.Amount,
		ChangeAmount:    winningBid.Amount,
		TransactionType: models.TransactionTypeSaleIncome,
		TransactionMetadata: map[string]any{
			"auction_id": auction.ID,
			"bid_id":     winningBid.ID,
		},
	}); err != nil {
		return false, err
	}

	return true, nil
}

func (s *closerService) notifyOutcome(ctx context.Context, outcome *models.AuctionOutcome) {
	auction := outcome.Auction
	if outcome.WinningBid != nil {
		s.notifier.Notify(ctx, outcome.WinnerID, fmt.Sprintf(
			"Congratulations! You won the auction '%s' with a bid of %d XTR.",
			auction.Title, outcome.WinningAmount))
		s.notifier.Notify(ctx, auction.CreatorID, fmt.Sprintf(
			"Your auction '%s' has ended. Winning bid: %d XTR.",
			auction.Title, outcome.WinningAmount))
	} else {
		s.notifier.Notify(ctx, auction.CreatorID, fmt.Sprintf(
			"Your auction '%s' has ended without any bids.", auction.Title))
	}
}

// RunDutchDecayPass brings the stored dutch price of every active dutch
// auction up to date and closes, without a winner, any whose price has
// decayed to zero.
func (s *closerService) RunDutchDecayPass(ctx context.Context, now time.Time) (int, error) {
	active, err := s.listActiveDutch(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, auction := range active {
		changed, err := s.decayOne(ctx, auction.ID, now)
		if err != nil {
			log.WithFields(log.Fields{
				"auctionID": auction.ID,
				"error":     err,
			}).Error("Failed to update dutch price")
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

func (s *closerService) listActiveDutch(ctx context.Context) ([]*models.Auction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	active, err := uow.AuctionRepository().GetActiveDutch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active dutch auctions: %w", err)
	}
	return active, nil
}

func (s *closerService) decayOne(ctx context.Context, auctionID int64, now time.Time) (bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	auction, err := uow.AuctionRepository().GetByIDForUpdate(ctx, auctionID)
	if err != nil {
		return false, fmt.Errorf("failed to lock auction: %w", err)
	}
	if auction == nil || !auction.IsActive || auction.Type != models.AuctionTypeDutch {
		return false, nil
	}

	livePrice := auction.LiveDutchPrice(now)
	if livePrice == auction.CurrentDutchPrice && livePrice > 0 {
		return false, nil
	}

	unsellable := livePrice <= 0

	if err := uow.AuctionRepository().SetDutchPrice(ctx, auctionID, livePrice); err != nil {
		return false, fmt.Errorf("failed to set dutch price: %w", err)
	}
	if unsellable {
		if err := uow.AuctionRepository().Deactivate(ctx, auctionID); err != nil {
			return false, fmt.Errorf("failed to deactivate auction: %w", err)
		}
		uow.EventBus().Publish(events.AuctionClosedEvent{
			AuctionID: auctionID,
			CreatorID: auction.CreatorID,
		})
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if unsellable {
		s.notifier.Notify(ctx, auction.CreatorID, fmt.Sprintf(
			"Your auction '%s' has ended without a buyer: the price decayed to zero.",
			auction.Title))
	}

	return true, nil
}
