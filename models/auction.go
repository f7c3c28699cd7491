package models

import (
	"time"
)

// AuctionType represents the bidding rules an auction runs under
type AuctionType string

const (
	AuctionTypeEnglish     AuctionType = "english"
	AuctionTypeDutch       AuctionType = "dutch"
	AuctionTypeClosed      AuctionType = "closed"
	AuctionTypeEverlasting AuctionType = "everlasting"
)

// EverlastingEndTime is the sentinel end time for auctions that never expire.
var EverlastingEndTime = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Auction represents a sellable lot
type Auction struct {
	ID            int64       `db:"id"`
	Title         string      `db:"title"`
	Description   string      `db:"description"`
	Type          AuctionType `db:"auction_type"`
	CreatorID     int64       `db:"creator_id"`
	StartingPrice int64       `db:"starting_price"`
	CurrentPrice  int64       `db:"current_price"`
	EndTime       time.Time   `db:"end_time"`
	IsActive      bool        `db:"is_active"`

	// Dutch-only fields; zero for other types
	CurrentDutchPrice    int64      `db:"current_dutch_price"`
	DutchPriceDecrement  int64      `db:"dutch_price_decrement"`
	DutchIntervalSeconds int64      `db:"dutch_interval_seconds"`
	DutchStartedAt       *time.Time `db:"dutch_started_at"`

	CreatedAt time.Time `db:"created_at"`
}

// HasExpired reports whether the auction's end time has passed
func (a *Auction) HasExpired(now time.Time) bool {
	return !a.EndTime.After(now)
}

// LiveDutchPrice computes the time-decayed price of a Dutch auction.
// The price drops by DutchPriceDecrement once per interval since the
// countdown started and never goes below zero.
func (a *Auction) LiveDutchPrice(now time.Time) int64 {
	if a.Type != AuctionTypeDutch || a.DutchStartedAt == nil || a.DutchIntervalSeconds <= 0 {
		return a.CurrentDutchPrice
	}
	elapsed := now.Sub(*a.DutchStartedAt)
	if elapsed < 0 {
		return a.StartingPrice
	}
	intervalsPassed := int64(elapsed / (time.Duration(a.DutchIntervalSeconds) * time.Second))
	price := a.StartingPrice - intervalsPassed*a.DutchPriceDecrement
	if price < 0 {
		return 0
	}
	return price
}

// AuctionSpec carries the caller-supplied parameters for a new auction
type AuctionSpec struct {
	Title                string
	Description          string
	Type                 AuctionType
	StartingPrice        int64
	EndTime              time.Time
	DutchPriceDecrement  int64
	DutchIntervalSeconds int64
}

// AuctionOutcome represents the result of closing one auction
type AuctionOutcome struct {
	Auction       *Auction
	WinningBid    *Bid
	WinnerID      int64
	WinningAmount int64
	Settled       bool
}
