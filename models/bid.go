package models

import "time"

// Bid is an immutable record of one offer on an auction
type Bid struct {
	ID        int64     `db:"id"`
	AuctionID int64     `db:"auction_id"`
	BidderID  int64     `db:"bidder_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

// BidReceipt represents the outcome of an accepted bid (returned to the user)
type BidReceipt struct {
	Bid           *Bid
	NewPrice      int64
	AuctionClosed bool
}
