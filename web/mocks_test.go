package web

import (
	"context"

	"starbid/models"

	"github.com/stretchr/testify/mock"
)

type mockAuctionService struct {
	mock.Mock
}

func (m *mockAuctionService) CreateAuction(ctx context.Context, spec models.AuctionSpec, creatorID int64) (*models.Auction, error) {
	args := m.Called(ctx, spec, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Auction), args.Error(1)
}

func (m *mockAuctionService) GetAuction(ctx context.Context, id int64) (*models.Auction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Auction), args.Error(1)
}

func (m *mockAuctionService) ListActive(ctx context.Context) ([]*models.Auction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Auction), args.Error(1)
}

func (m *mockAuctionService) ListEnded(ctx context.Context, limit, offset int) ([]*models.Auction, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Auction), args.Error(1)
}

func (m *mockAuctionService) ListByCreator(ctx context.Context, creatorID int64) ([]*models.Auction, error) {
	args := m.Called(ctx, creatorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Auction), args.Error(1)
}

func (m *mockAuctionService) GetBidHistory(ctx context.Context, auctionID int64, limit int) ([]*models.Bid, error) {
	args := m.Called(ctx, auctionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bid), args.Error(1)
}

type mockBidService struct {
	mock.Mock
}

func (m *mockBidService) PlaceBid(ctx context.Context, auctionID, bidderID, amount int64) (*models.BidReceipt, error) {
	args := m.Called(ctx, auctionID, bidderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BidReceipt), args.Error(1)
}

func (m *mockBidService) ListByBidder(ctx context.Context, bidderID int64, limit int) ([]*models.Bid, error) {
	args := m.Called(ctx, bidderID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bid), args.Error(1)
}

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) GetOrCreateByTelegramID(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	args := m.Called(ctx, telegramID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) TopUp(ctx context.Context, telegramID int64, username string, amount int64) (*models.User, error) {
	args := m.Called(ctx, telegramID, username, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserService) GetBalanceHistory(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

type mockWatchlistService struct {
	mock.Mock
}

func (m *mockWatchlistService) Watch(ctx context.Context, userID, auctionID int64) error {
	args := m.Called(ctx, userID, auctionID)
	return args.Error(0)
}

func (m *mockWatchlistService) Unwatch(ctx context.Context, userID, auctionID int64) error {
	args := m.Called(ctx, userID, auctionID)
	return args.Error(0)
}

func (m *mockWatchlistService) List(ctx context.Context, userID int64) ([]*models.Auction, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Auction), args.Error(1)
}
