package service

import (
	"context"
	"testing"
	"time"

	"starbid/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBidService_PlaceBid_EnglishRaisesPrice(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	auction := &models.Auction{
		ID:            1,
		Title:         "Vintage camera",
		Type:          models.AuctionTypeEnglish,
		CreatorID:     10,
		StartingPrice: 100,
		CurrentPrice:  100,
		EndTime:       time.Now().Add(time.Hour),
		IsActive:      true,
	}
	bidder := &models.User{ID: 20, TelegramID: 555, Username: "bidder", XTRBalance: 500}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(auction, nil)
	mockUserRepo.On("GetByID", ctx, int64(20)).Return(bidder, nil)
	mockBidRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Bid) bool {
		return b.AuctionID == 1 && b.BidderID == 20 && b.Amount == 150
	})).Return(nil).Run(func(args mock.Arguments) {
		bid := args.Get(1).(*models.Bid)
		bid.ID = 7
		bid.CreatedAt = time.Now()
	})
	mockAuctionRepo.On("SetCurrentPrice", ctx, int64(1), int64(150)).Return(nil)

	receipt, err := service.PlaceBid(ctx, 1, 20, 150)

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Equal(t, int64(150), receipt.NewPrice)
	assert.False(t, receipt.AuctionClosed)
	assert.Equal(t, int64(7), receipt.Bid.ID)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockAuctionRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBidRepo.AssertExpectations(t)
}

func TestBidService_PlaceBid_EnglishBidTooLow(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	auction := &models.Auction{
		ID:           1,
		Type:         models.AuctionTypeEnglish,
		CurrentPrice: 200,
		IsActive:     true,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(auction, nil)

	// Equal to the current price is not enough
	receipt, err := service.PlaceBid(ctx, 1, 20, 200)

	assert.ErrorIs(t, err, ErrBidTooLow)
	assert.Nil(t, receipt)

	mockAuctionRepo.AssertExpectations(t)
	mockBidRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBidService_PlaceBid_AuctionNotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

	receipt, err := service.PlaceBid(ctx, 99, 20, 100)

	assert.ErrorIs(t, err, ErrAuctionNotFound)
	assert.Nil(t, receipt)
}

func TestBidService_PlaceBid_AuctionNotActive(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	auction := &models.Auction{ID: 1, Type: models.AuctionTypeEnglish, CurrentPrice: 100, IsActive: false}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(auction, nil)

	receipt, err := service.PlaceBid(ctx, 1, 20, 150)

	assert.ErrorIs(t, err, ErrAuctionNotActive)
	assert.Nil(t, receipt)
}

func TestBidService_PlaceBid_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	mockFactory := new(MockUnitOfWorkFactory)
	service := NewBidService(mockFactory)

	receipt, err := service.PlaceBid(ctx, 1, 20, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, receipt)

	receipt, err = service.PlaceBid(ctx, 1, 20, -50)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Nil(t, receipt)

	mockFactory.AssertNotCalled(t, "Create")
}

func TestBidService_PlaceBid_InsufficientBalance(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	auction := &models.Auction{
		ID:           1,
		Type:         models.AuctionTypeEnglish,
		CurrentPrice: 100,
		IsActive:     true,
	}
	bidder := &models.User{ID: 20, XTRBalance: 120}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(auction, nil)
	mockUserRepo.On("GetByID", ctx, int64(20)).Return(bidder, nil)

	receipt, err := service.PlaceBid(ctx, 1, 20, 150)

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Nil(t, receipt)

	mockBidRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockAuctionRepo.AssertNotCalled(t, "SetCurrentPrice", mock.Anything, mock.Anything, mock.Anything)
}

func TestBidService_PlaceBid_ClosedKeepsPriceHidden(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	auction := &models.Auction{
		ID:            2,
		Type:          models.AuctionTypeClosed,
		StartingPrice: 100,
		CurrentPrice:  100,
		IsActive:      true,
	}
	bidder := &models.User{ID: 20, XTRBalance: 1000}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(auction, nil)
	mockUserRepo.On("GetByID", ctx, int64(20)).Return(bidder, nil)
	mockBidRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Bid) bool {
		return b.AuctionID == 2 && b.Amount == 300
	})).Return(nil)

	receipt, err := service.PlaceBid(ctx, 2, 20, 300)

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	// A sealed bid never moves the public price
	assert.Equal(t, int64(100), receipt.NewPrice)
	assert.False(t, receipt.AuctionClosed)

	mockAuctionRepo.AssertNotCalled(t, "SetCurrentPrice", mock.Anything, mock.Anything, mock.Anything)
}

func TestBidService_PlaceBid_ClosedBelowStartingRejected(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	auction := &models.Auction{
		ID:            2,
		Type:          models.AuctionTypeClosed,
		StartingPrice: 100,
		CurrentPrice:  100,
		IsActive:      true,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(2)).Return(auction, nil)

	// Sealed bids compete against the starting price; equal is rejected
	receipt, err := service.PlaceBid(ctx, 2, 20, 100)

	assert.ErrorIs(t, err, ErrBidTooLow)
	assert.Nil(t, receipt)
}

func TestBidService_PlaceBid_EverlastingRaisesPrice(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	auction := &models.Auction{
		ID:           3,
		Type:         models.AuctionTypeEverlasting,
		CurrentPrice: 50,
		EndTime:      models.EverlastingEndTime,
		IsActive:     true,
	}
	bidder := &models.User{ID: 20, XTRBalance: 1000}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(3)).Return(auction, nil)
	mockUserRepo.On("GetByID", ctx, int64(20)).Return(bidder, nil)
	mockBidRepo.On("Create", ctx, mock.AnythingOfType("*models.Bid")).Return(nil)
	mockAuctionRepo.On("SetCurrentPrice", ctx, int64(3), int64(60)).Return(nil)

	receipt, err := service.PlaceBid(ctx, 3, 20, 60)

	assert.NoError(t, err)
	assert.Equal(t, int64(60), receipt.NewPrice)
	assert.False(t, receipt.AuctionClosed)
}

func TestBidService_PlaceBid_DutchAcceptClosesAuction(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	// Started 2.5 intervals ago: 100 - 2*10 = 80
	started := time.Now().UTC().Add(-150 * time.Second)
	auction := &models.Auction{
		ID:                   4,
		Type:                 models.AuctionTypeDutch,
		StartingPrice:        100,
		CurrentPrice:         100,
		CurrentDutchPrice:    80,
		DutchPriceDecrement:  10,
		DutchIntervalSeconds: 60,
		DutchStartedAt:       &started,
		IsActive:             true,
	}
	bidder := &models.User{ID: 20, XTRBalance: 1000}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(4)).Return(auction, nil)
	mockUserRepo.On("GetByID", ctx, int64(20)).Return(bidder, nil)
	mockBidRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Bid) bool {
		return b.AuctionID == 4 && b.Amount == 80
	})).Return(nil)
	mockAuctionRepo.On("SetCurrentPrice", ctx, int64(4), int64(80)).Return(nil)
	mockAuctionRepo.On("Deactivate", ctx, int64(4)).Return(nil)

	receipt, err := service.PlaceBid(ctx, 4, 20, 80)

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Equal(t, int64(80), receipt.NewPrice)
	assert.True(t, receipt.AuctionClosed)

	mockAuctionRepo.AssertExpectations(t)
}

func TestBidService_PlaceBid_DutchPriceMismatch(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	started := time.Now().UTC().Add(-150 * time.Second)
	auction := &models.Auction{
		ID:                   4,
		Type:                 models.AuctionTypeDutch,
		StartingPrice:        100,
		CurrentPrice:         100,
		CurrentDutchPrice:    80,
		DutchPriceDecrement:  10,
		DutchIntervalSeconds: 60,
		DutchStartedAt:       &started,
		IsActive:             true,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(4)).Return(auction, nil)

	// Live price is 80; overbidding a dutch auction is a mismatch too
	receipt, err := service.PlaceBid(ctx, 4, 20, 100)

	assert.ErrorIs(t, err, ErrBidPriceMismatch)
	assert.Nil(t, receipt)

	mockBidRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBidService_PlaceBid_DutchDecayedToZeroCloses(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAuctionRepo := new(MockAuctionRepository)
	mockBidRepo := new(MockBidRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockAuctionRepo, mockBidRepo, mockWatchlistRepo, mockBalanceHistoryRepo)

	service := NewBidService(mockFactory)

	// 20 intervals have passed; the price bottomed out at zero
	started := time.Now().UTC().Add(-20 * time.Minute)
	auction := &models.Auction{
		ID:                   5,
		Type:                 models.AuctionTypeDutch,
		StartingPrice:        100,
		CurrentPrice:         100,
		CurrentDutchPrice:    0,
		DutchPriceDecrement:  10,
		DutchIntervalSeconds: 60,
		DutchStartedAt:       &started,
		IsActive:             true,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByIDForUpdate", ctx, int64(5)).Return(auction, nil)
	mockAuctionRepo.On("Deactivate", ctx, int64(5)).Return(nil)

	receipt, err := service.PlaceBid(ctx, 5, 20, 10)

	assert.ErrorIs(t, err, ErrAuctionNotActive)
	assert.Nil(t, receipt)

	// The close is committed even though the bid is rejected
	mockUoW.AssertCalled(t, "Commit")
	mockBidRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBidService_PlaceBid_RetriesSerializationFailure(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewBidService(mockFactory)

	auction := &models.Auction{
		ID:           1,
		Type:         models.AuctionTypeEnglish,
		CurrentPrice: 100,
		IsActive:     true,
	}
	bidder := &models.User{ID: 20, XTRBalance: 1000}

	// First attempt loses a serialization race at commit
	firstUoW := new(MockUnitOfWork)
	firstAuctionRepo := new(MockAuctionRepository)
	firstUserRepo := new(MockUserRepository)
	firstBidRepo := new(MockBidRepository)
	firstUoW.SetRepositories(firstUserRepo, firstAuctionRepo, firstBidRepo, new(MockWatchlistRepository), new(MockBalanceHistoryRepository))
	firstUoW.On("Begin", ctx).Return(nil)
	firstUoW.On("Commit").Return(&pgconn.PgError{Code: "40001"})
	firstUoW.On("Rollback").Return(nil)
	firstAuctionRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(auction, nil)
	firstUserRepo.On("GetByID", ctx, int64(20)).Return(bidder, nil)
	firstBidRepo.On("Create", ctx, mock.AnythingOfType("*models.Bid")).Return(nil)
	firstAuctionRepo.On("SetCurrentPrice", ctx, int64(1), int64(150)).Return(nil)

	// Second attempt succeeds against fresh state
	secondUoW := new(MockUnitOfWork)
	secondAuctionRepo := new(MockAuctionRepository)
	secondUserRepo := new(MockUserRepository)
	secondBidRepo := new(MockBidRepository)
	secondUoW.SetRepositories(secondUserRepo, secondAuctionRepo, secondBidRepo, new(MockWatchlistRepository), new(MockBalanceHistoryRepository))
	secondUoW.On("Begin", ctx).Return(nil)
	secondUoW.On("Commit").Return(nil)
	secondUoW.On("Rollback").Return(nil)
	secondAuctionRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(auction, nil)
	secondUserRepo.On("GetByID", ctx, int64(20)).Return(bidder, nil)
	secondBidRepo.On("Create", ctx, mock.AnythingOfType("*models.Bid")).Return(nil)
	secondAuctionRepo.On("SetCurrentPrice", ctx, int64(1), int64(150)).Return(nil)

	mockFactory.On("Create").Return(firstUoW).Once()
	mockFactory.On("Create").Return(secondUoW).Once()

	receipt, err := service.PlaceBid(ctx, 1, 20, 150)

	assert.NoError(t, err)
	assert.NotNil(t, receipt)
	assert.Equal(t, int64(150), receipt.NewPrice)

	mockFactory.AssertExpectations(t)
	secondUoW.AssertExpectations(t)
}
