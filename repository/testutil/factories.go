package testutil

import (
	"time"

	"starbid/models"
)

// CreateTestAuction creates an english auction with default values
func CreateTestAuction(creatorID int64, title string) *models.Auction {
	return &models.Auction{
		Title:         title,
		Description:   "test auction",
		Type:          models.AuctionTypeEnglish,
		CreatorID:     creatorID,
		StartingPrice: 100,
		CurrentPrice:  100,
		EndTime:       time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second),
		IsActive:      true,
	}
}

// CreateTestAuctionOfType creates an auction of the given type with defaults
func CreateTestAuctionOfType(creatorID int64, title string, auctionType models.AuctionType) *models.Auction {
	auction := CreateTestAuction(creatorID, title)
	auction.Type = auctionType

	switch auctionType {
	case models.AuctionTypeEverlasting:
		auction.EndTime = models.EverlastingEndTime
	case models.AuctionTypeDutch:
		started := time.Now().UTC().Truncate(time.Second)
		auction.CurrentDutchPrice = auction.StartingPrice
		auction.DutchPriceDecrement = 10
		auction.DutchIntervalSeconds = 60
		auction.DutchStartedAt = &started
	}
	return auction
}

// CreateExpiredTestAuction creates an english auction whose end time has passed
func CreateExpiredTestAuction(creatorID int64, title string) *models.Auction {
	auction := CreateTestAuction(creatorID, title)
	auction.EndTime = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	return auction
}

// CreateTestBalanceHistory creates a balance history entry with default values
func CreateTestBalanceHistory(userID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   1000,
		BalanceAfter:    900,
		ChangeAmount:    -100,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
