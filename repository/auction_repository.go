package repository

import (
	"context"
	"fmt"
	"time"

	"starbid/database"
	"starbid/models"

	"github.com/jackc/pgx/v5"
)

// AuctionRepository implements the service.AuctionRepository interface
type AuctionRepository struct {
	q queryable
}

// NewAuctionRepository creates a new auction repository
func NewAuctionRepository(db *database.DB) *AuctionRepository {
	return &AuctionRepository{q: db.Pool}
}

// newAuctionRepositoryWithTx creates a new auction repository with a transaction
func newAuctionRepositoryWithTx(tx queryable) *AuctionRepository {
	return &AuctionRepository{q: tx}
}

const auctionColumns = `id, title, description, auction_type, creator_id, starting_price,
	current_price, end_time, is_active, current_dutch_price, dutch_price_decrement,
	dutch_interval_seconds, dutch_started_at, created_at`

func scanAuction(row pgx.Row) (*models.Auction, error) {
	var auction models.Auction
	err := row.Scan(
		&auction.ID,
		&auction.Title,
		&auction.Description,
		&auction.Type,
		&auction.CreatorID,
		&auction.StartingPrice,
		&auction.CurrentPrice,
		&auction.EndTime,
		&auction.IsActive,
		&auction.CurrentDutchPrice,
		&auction.DutchPriceDecrement,
		&auction.DutchIntervalSeconds,
		&auction.DutchStartedAt,
		&auction.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &auction, nil
}

func (r *AuctionRepository) scanAuctions(rows pgx.Rows) ([]*models.Auction, error) {
	defer rows.Close()

	var auctions []*models.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auctions: %w", err)
	}
	return auctions, nil
}

// Create inserts a new auction and fills in its generated fields
func (r *AuctionRepository) Create(ctx context.Context, auction *models.Auction) error {
	query := `
		INSERT INTO auctions
		(title, description, auction_type, creator_id, starting_price, current_price,
		 end_time, is_active, current_dutch_price, dutch_price_decrement,
		 dutch_interval_seconds, dutch_started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		auction.Title,
		auction.Description,
		auction.Type,
		auction.CreatorID,
		auction.StartingPrice,
		auction.CurrentPrice,
		auction.EndTime,
		auction.IsActive,
		auction.CurrentDutchPrice,
		auction.DutchPriceDecrement,
		auction.DutchIntervalSeconds,
		auction.DutchStartedAt,
	).Scan(&auction.ID, &auction.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create auction: %w", err)
	}
	return nil
}

// GetByID retrieves an auction by ID
func (r *AuctionRepository) GetByID(ctx context.Context, id int64) (*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`

	auction, err := scanAuction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get auction %d: %w", id, err)
	}
	return auction, nil
}

// GetByIDForUpdate retrieves an auction with its row locked until the
// surrounding transaction ends. Concurrent bids and the closer serialize on
// this lock.
func (r *AuctionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`

	auction, err := scanAuction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock auction %d: %w", id, err)
	}
	return auction, nil
}

// ListActive returns all active auctions, soonest-ending first
func (r *AuctionRepository) ListActive(ctx context.Context) ([]*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE is_active = TRUE ORDER BY end_time ASC`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active auctions: %w", err)
	}
	return r.scanAuctions(rows)
}

// ListEnded returns closed auctions, most recently ended first
func (r *AuctionRepository) ListEnded(ctx context.Context, limit, offset int) ([]*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE is_active = FALSE
		ORDER BY end_time DESC LIMIT $1 OFFSET $2`

	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ended auctions: %w", err)
	}
	return r.scanAuctions(rows)
}

// ListByCreator returns all auctions created by a user, newest first
func (r *AuctionRepository) ListByCreator(ctx context.Context, creatorID int64) ([]*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE creator_id = $1 ORDER BY created_at DESC`

	rows, err := r.q.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions for creator %d: %w", creatorID, err)
	}
	return r.scanAuctions(rows)
}

// SetCurrentPrice updates the authoritative price
func (r *AuctionRepository) SetCurrentPrice(ctx context.Context, id int64, price int64) error {
	query := `UPDATE auctions SET current_price = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, price, id)
	if err != nil {
		return fmt.Errorf("failed to set price for auction %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction %d not found", id)
	}
	return nil
}

// SetDutchPrice updates the stored time-decayed dutch price
func (r *AuctionRepository) SetDutchPrice(ctx context.Context, id int64, price int64) error {
	query := `UPDATE auctions SET current_dutch_price = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, price, id)
	if err != nil {
		return fmt.Errorf("failed to set dutch price for auction %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction %d not found", id)
	}
	return nil
}

// Deactivate marks the auction closed. Closing is terminal: the active flag
// only ever transitions from true to false.
func (r *AuctionRepository) Deactivate(ctx context.Context, id int64) error {
	query := `UPDATE auctions SET is_active = FALSE WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate auction %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("auction %d not found", id)
	}
	return nil
}

// GetExpiredActive returns active auctions whose end time has passed.
// Everlasting auctions never expire and are excluded here, not in the caller.
func (r *AuctionRepository) GetExpiredActive(ctx context.Context, now time.Time) ([]*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
		WHERE is_active = TRUE AND end_time <= $1 AND auction_type != $2
		ORDER BY end_time ASC`

	rows, err := r.q.Query(ctx, query, now, models.AuctionTypeEverlasting)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired auctions: %w", err)
	}
	return r.scanAuctions(rows)
}

// GetActiveDutch returns all active dutch auctions
func (r *AuctionRepository) GetActiveDutch(ctx context.Context) ([]*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
		WHERE is_active = TRUE AND auction_type = $1`

	rows, err := r.q.Query(ctx, query, models.AuctionTypeDutch)
	if err != nil {
		return nil, fmt.Errorf("failed to list active dutch auctions: %w", err)
	}
	return r.scanAuctions(rows)
}
