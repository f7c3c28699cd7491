package service

import (
	"context"
	"time"

	"starbid/events"
	"starbid/models"
)

// UserRepository defines the interface for user and wallet data access.
// It is the only writer of xtr_balance.
type UserRepository interface {
	// GetByID retrieves a user by internal ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByTelegramID retrieves a user by their Telegram ID
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, telegramID int64, username string, initialBalance int64) (*models.User, error)

	// AddBalance credits a user's balance atomically
	AddBalance(ctx context.Context, userID int64, amount int64) error

	// DeductBalance debits a user's balance atomically, returning
	// ErrInsufficientBalance without mutation when funds do not cover it
	DeductBalance(ctx context.Context, userID int64, amount int64) error
}

// AuctionRepository defines the interface for auction data access.
// It is the only writer of current_price and is_active.
type AuctionRepository interface {
	// Create inserts a new auction and fills in its generated fields
	Create(ctx context.Context, auction *models.Auction) error

	// GetByID retrieves an auction by ID, (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*models.Auction, error)

	// GetByIDForUpdate retrieves an auction with its row locked for the
	// duration of the surrounding transaction
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Auction, error)

	// ListActive returns all active auctions, soonest-ending first
	ListActive(ctx context.Context) ([]*models.Auction, error)

	// ListEnded returns closed auctions, most recently ended first
	ListEnded(ctx context.Context, limit, offset int) ([]*models.Auction, error)

	// ListByCreator returns all auctions created by a user
	ListByCreator(ctx context.Context, creatorID int64) ([]*models.Auction, error)

	// SetCurrentPrice updates the authoritative price
	SetCurrentPrice(ctx context.Context, id int64, price int64) error

	// SetDutchPrice updates the stored time-decayed dutch price
	SetDutchPrice(ctx context.Context, id int64, price int64) error

	// Deactivate marks the auction closed; closing is terminal
	Deactivate(ctx context.Context, id int64) error

	// GetExpiredActive returns active non-everlasting auctions whose end
	// time has passed
	GetExpiredActive(ctx context.Context, now time.Time) ([]*models.Auction, error)

	// GetActiveDutch returns all active dutch auctions
	GetActiveDutch(ctx context.Context) ([]*models.Auction, error)
}

// BidRepository defines the interface for bid data access.
// Bids are append-only; there are no update or delete operations.
type BidRepository interface {
	// Create inserts a new bid record
	Create(ctx context.Context, bid *models.Bid) error

	// ListByAuction returns bids for an auction ordered by amount
	// descending, newest first among equal amounts
	ListByAuction(ctx context.Context, auctionID int64, limit int) ([]*models.Bid, error)

	// HighestBid returns the winning candidate: highest amount, earliest
	// timestamp among ties; (nil, nil) when the auction has no bids
	HighestBid(ctx context.Context, auctionID int64) (*models.Bid, error)

	// ListByBidder returns a user's bids, newest first
	ListByBidder(ctx context.Context, bidderID int64, limit int) ([]*models.Bid, error)
}

// WatchlistRepository defines the interface for watchlist membership
type WatchlistRepository interface {
	// Add puts an auction on a user's watchlist; adding twice is an error
	Add(ctx context.Context, userID, auctionID int64) error

	// Remove takes an auction off a user's watchlist
	Remove(ctx context.Context, userID, auctionID int64) error

	// Contains reports whether the auction is on the user's watchlist
	Contains(ctx context.Context, userID, auctionID int64) (bool, error)

	// ListByUser returns the auctions on a user's watchlist
	ListByUser(ctx context.Context, userID int64) ([]*models.Auction, error)
}

// BalanceHistoryRepository defines the interface for the wallet journal
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// UserService defines the interface for account and wallet operations
type UserService interface {
	// GetOrCreateByTelegramID retrieves an existing user or creates one
	// with the configured starting balance
	GetOrCreateByTelegramID(ctx context.Context, telegramID int64, username string) (*models.User, error)

	// GetByID retrieves a user by internal ID
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// TopUp credits XTR once per confirmed external payment event,
	// creating the account when the Telegram ID is unknown
	TopUp(ctx context.Context, telegramID int64, username string, amount int64) (*models.User, error)

	// GetBalanceHistory returns the user's balance changes, newest first
	GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// AuctionService defines the interface for auction registry operations
type AuctionService interface {
	// CreateAuction validates the spec and lists a new auction
	CreateAuction(ctx context.Context, spec models.AuctionSpec, creatorID int64) (*models.Auction, error)

	// GetAuction retrieves an auction, ErrAuctionNotFound when absent
	GetAuction(ctx context.Context, id int64) (*models.Auction, error)

	// ListActive returns all active auctions
	ListActive(ctx context.Context) ([]*models.Auction, error)

	// ListEnded returns closed auctions, paged
	ListEnded(ctx context.Context, limit, offset int) ([]*models.Auction, error)

	// ListByCreator returns a user's own auctions
	ListByCreator(ctx context.Context, creatorID int64) ([]*models.Auction, error)

	// GetBidHistory returns the top bids on an auction by amount descending
	GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*models.Bid, error)
}

// BidService defines the interface for the bid acceptance state machine
type BidService interface {
	// PlaceBid validates a bid against the auction's type-specific rules
	// and applies all resulting mutations atomically, or rejects with a
	// typed reason and applies nothing
	PlaceBid(ctx context.Context, auctionID, bidderID, amount int64) (*models.BidReceipt, error)

	// ListByBidder returns a user's bids, newest first
	ListByBidder(ctx context.Context, bidderID int64, limit int) ([]*models.Bid, error)
}

// CloserService defines the interface for periodic auction resolution
type CloserService interface {
	// RunCloserPass finalizes expired auctions as of now and returns how
	// many were closed. Per-auction failures are logged and skipped.
	RunCloserPass(ctx context.Context, now time.Time) (int, error)

	// RunDutchDecayPass recomputes stored dutch prices as of now, closing
	// without a winner any auction whose price has decayed to zero.
	// Returns how many auctions were updated.
	RunDutchDecayPass(ctx context.Context, now time.Time) (int, error)
}

// WatchlistService defines the interface for watchlist operations
type WatchlistService interface {
	Watch(ctx context.Context, userID, auctionID int64) error
	Unwatch(ctx context.Context, userID, auctionID int64) error
	List(ctx context.Context, userID int64) ([]*models.Auction, error)
}

// Notifier delivers outcome messages to users. Delivery is fire-and-forget:
// implementations log failures and never return them.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	AuctionRepository() AuctionRepository
	BidRepository() BidRepository
	WatchlistRepository() WatchlistRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create returns a new, unstarted UnitOfWork
	Create() UnitOfWork
}
