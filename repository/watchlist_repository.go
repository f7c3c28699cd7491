package repository

import (
	"context"
	"fmt"

	"starbid/database"
	"starbid/models"
)

// WatchlistRepository implements the service.WatchlistRepository interface
type WatchlistRepository struct {
	q queryable
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *database.DB) *WatchlistRepository {
	return &WatchlistRepository{q: db.Pool}
}

// newWatchlistRepositoryWithTx creates a new watchlist repository with a transaction
func newWatchlistRepositoryWithTx(tx queryable) *WatchlistRepository {
	return &WatchlistRepository{q: tx}
}

// Add puts an auction on a user's watchlist
func (r *WatchlistRepository) Add(ctx context.Context, userID, auctionID int64) error {
	query := `INSERT INTO watchlist (user_id, auction_id) VALUES ($1, $2)`

	if _, err := r.q.Exec(ctx, query, userID, auctionID); err != nil {
		return fmt.Errorf("failed to add auction %d to watchlist of user %d: %w", auctionID, userID, err)
	}
	return nil
}

// Remove takes an auction off a user's watchlist
func (r *WatchlistRepository) Remove(ctx context.Context, userID, auctionID int64) error {
	query := `DELETE FROM watchlist WHERE user_id = $1 AND auction_id = $2`

	if _, err := r.q.Exec(ctx, query, userID, auctionID); err != nil {
		return fmt.Errorf("failed to remove auction %d from watchlist of user %d: %w", auctionID, userID, err)
	}
	return nil
}

// Contains reports whether the auction is on the user's watchlist
func (r *WatchlistRepository) Contains(ctx context.Context, userID, auctionID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM watchlist WHERE user_id = $1 AND auction_id = $2)`

	var exists bool
	if err := r.q.QueryRow(ctx, query, userID, auctionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check watchlist: %w", err)
	}
	return exists, nil
}

// ListByUser returns the auctions on a user's watchlist, newest entry first
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Auction, error) {
	query := `
		SELECT a.id, a.title, a.description, a.auction_type, a.creator_id, a.starting_price,
			a.current_price, a.end_time, a.is_active, a.current_dutch_price,
			a.dutch_price_decrement, a.dutch_interval_seconds, a.dutch_started_at, a.created_at
		FROM auctions a
		JOIN watchlist w ON w.auction_id = a.id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist for user %d: %w", userID, err)
	}
	defer rows.Close()

	var auctions []*models.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist auction: %w", err)
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watchlist: %w", err)
	}
	return auctions, nil
}
