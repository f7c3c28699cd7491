package web

import (
	"time"

	"starbid/models"
)

type createAuctionRequest struct {
	Title                string `json:"title" binding:"required"`
	Description          string `json:"description"`
	Type                 string `json:"auction_type" binding:"required"`
	StartingPrice        int64  `json:"starting_price" binding:"required,gt=0"`
	EndTime              string `json:"end_time"`
	DutchPriceDecrement  int64  `json:"dutch_price_decrement"`
	DutchIntervalSeconds int64  `json:"dutch_interval_seconds"`
}

type placeBidRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type auctionResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Type          string `json:"auction_type"`
	CreatorID     int64  `json:"creator_id"`
	StartingPrice int64  `json:"starting_price"`
	CurrentPrice  int64  `json:"current_price"`
	DutchPrice    *int64 `json:"dutch_price,omitempty"`
	EndTime       string `json:"end_time"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
}

type bidResponse struct {
	ID        int64  `json:"id"`
	AuctionID int64  `json:"auction_id"`
	BidderID  int64  `json:"bidder_id"`
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type bidReceiptResponse struct {
	Bid           bidResponse `json:"bid"`
	NewPrice      int64       `json:"new_price"`
	AuctionClosed bool        `json:"auction_closed"`
}

type balanceHistoryResponse struct {
	ID              int64  `json:"id"`
	BalanceBefore   int64  `json:"balance_before"`
	BalanceAfter    int64  `json:"balance_after"`
	ChangeAmount    int64  `json:"change_amount"`
	TransactionType string `json:"transaction_type"`
	CreatedAt       string `json:"created_at"`
}

func newBalanceHistoryResponses(entries []*models.BalanceHistory) []balanceHistoryResponse {
	out := make([]balanceHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, balanceHistoryResponse{
			ID:              e.ID,
			BalanceBefore:   e.BalanceBefore,
			BalanceAfter:    e.BalanceAfter,
			ChangeAmount:    e.ChangeAmount,
			TransactionType: string(e.TransactionType),
			CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func newAuctionResponse(a *models.Auction, now time.Time) auctionResponse {
	resp := auctionResponse{
		ID:            a.ID,
		Title:         a.Title,
		Description:   a.Description,
		Type:          string(a.Type),
		CreatorID:     a.CreatorID,
		StartingPrice: a.StartingPrice,
		CurrentPrice:  a.CurrentPrice,
		EndTime:       a.EndTime.UTC().Format(time.RFC3339),
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.Type == models.AuctionTypeDutch && a.IsActive {
		price := a.LiveDutchPrice(now)
		resp.DutchPrice = &price
	}
	return resp
}

func newAuctionResponses(auctions []*models.Auction, now time.Time) []auctionResponse {
	out := make([]auctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, newAuctionResponse(a, now))
	}
	return out
}

func newBidResponse(b *models.Bid) bidResponse {
	return bidResponse{
		ID:        b.ID,
		AuctionID: b.AuctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newBidResponses(bids []*models.Bid) []bidResponse {
	out := make([]bidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, newBidResponse(b))
	}
	return out
}
