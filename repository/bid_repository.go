package repository

import (
	"context"
	"fmt"

	"starbid/database"
	"starbid/models"

	"github.com/jackc/pgx/v5"
)

// BidRepository implements the service.BidRepository interface.
// Bids are append-only; this repository never updates or deletes rows.
type BidRepository struct {
	q queryable
}

// NewBidRepository creates a new bid repository
func NewBidRepository(db *database.DB) *BidRepository {
	return &BidRepository{q: db.Pool}
}

// newBidRepositoryWithTx creates a new bid repository with a transaction
func newBidRepositoryWithTx(tx queryable) *BidRepository {
	return &BidRepository{q: tx}
}

// Create inserts a new bid record
func (r *BidRepository) Create(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bids (auction_id, bidder_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, bid.AuctionID, bid.BidderID, bid.Amount).
		Scan(&bid.ID, &bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}
	return nil
}

// ListByAuction returns bids for an auction ordered by amount descending
func (r *BidRepository) ListByAuction(ctx context.Context, auctionID int64, limit int) ([]*models.Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, auctionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for auction %d: %w", auctionID, err)
	}
	return scanBids(rows)
}

// HighestBid returns the winning candidate for an auction: the highest
// amount, with ties broken by earliest timestamp. Returns (nil, nil) when
// the auction has no bids.
func (r *BidRepository) HighestBid(ctx context.Context, auctionID int64) (*models.Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`

	var bid models.Bid
	err := r.q.QueryRow(ctx, query, auctionID).Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.BidderID,
		&bid.Amount,
		&bid.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get highest bid for auction %d: %w", auctionID, err)
	}
	return &bid, nil
}

// ListByBidder returns a user's bids, newest first
func (r *BidRepository) ListByBidder(ctx context.Context, bidderID int64, limit int) ([]*models.Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids
		WHERE bidder_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, bidderID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids for bidder %d: %w", bidderID, err)
	}
	return scanBids(rows)
}

func scanBids(rows pgx.Rows) ([]*models.Bid, error) {
	defer rows.Close()

	var bids []*models.Bid
	for rows.Next() {
		var bid models.Bid
		err := rows.Scan(
			&bid.ID,
			&bid.AuctionID,
			&bid.BidderID,
			&bid.Amount,
			&bid.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		bids = append(bids, &bid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bids: %w", err)
	}
	return bids, nil
}
