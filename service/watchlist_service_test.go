package service

import (
	"context"
	"testing"

	"starbid/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestWatchlistService_Watch(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAuctionRepo := new(MockAuctionRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)

	mockUoW.SetRepositories(new(MockUserRepository), mockAuctionRepo, new(MockBidRepository), mockWatchlistRepo, new(MockBalanceHistoryRepository))

	service := NewWatchlistService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByID", ctx, int64(1)).Return(&models.Auction{ID: 1, IsActive: true}, nil)
	mockWatchlistRepo.On("Contains", ctx, int64(20), int64(1)).Return(false, nil)
	mockWatchlistRepo.On("Add", ctx, int64(20), int64(1)).Return(nil)

	err := service.Watch(ctx, 20, 1)

	assert.NoError(t, err)
	mockWatchlistRepo.AssertExpectations(t)
}

func TestWatchlistService_Watch_Idempotent(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAuctionRepo := new(MockAuctionRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)

	mockUoW.SetRepositories(new(MockUserRepository), mockAuctionRepo, new(MockBidRepository), mockWatchlistRepo, new(MockBalanceHistoryRepository))

	service := NewWatchlistService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByID", ctx, int64(1)).Return(&models.Auction{ID: 1, IsActive: true}, nil)
	mockWatchlistRepo.On("Contains", ctx, int64(20), int64(1)).Return(true, nil)

	err := service.Watch(ctx, 20, 1)

	assert.NoError(t, err)
	mockWatchlistRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestWatchlistService_Watch_UnknownAuction(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockAuctionRepo := new(MockAuctionRepository)
	mockWatchlistRepo := new(MockWatchlistRepository)

	mockUoW.SetRepositories(new(MockUserRepository), mockAuctionRepo, new(MockBidRepository), mockWatchlistRepo, new(MockBalanceHistoryRepository))

	service := NewWatchlistService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockAuctionRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

	err := service.Watch(ctx, 20, 99)

	assert.ErrorIs(t, err, ErrAuctionNotFound)
	mockWatchlistRepo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
}

func TestWatchlistService_Unwatch(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWatchlistRepo := new(MockWatchlistRepository)

	mockUoW.SetRepositories(new(MockUserRepository), new(MockAuctionRepository), new(MockBidRepository), mockWatchlistRepo, new(MockBalanceHistoryRepository))

	service := NewWatchlistService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockWatchlistRepo.On("Remove", ctx, int64(20), int64(1)).Return(nil)

	err := service.Unwatch(ctx, 20, 1)

	assert.NoError(t, err)
	mockWatchlistRepo.AssertExpectations(t)
}

func TestWatchlistService_List(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockWatchlistRepo := new(MockWatchlistRepository)

	mockUoW.SetRepositories(new(MockUserRepository), new(MockAuctionRepository), new(MockBidRepository), mockWatchlistRepo, new(MockBalanceHistoryRepository))

	service := NewWatchlistService(mockFactory)

	watched := []*models.Auction{{ID: 1}, {ID: 2}}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockWatchlistRepo.On("ListByUser", ctx, int64(20)).Return(watched, nil)

	auctions, err := service.List(ctx, 20)

	assert.NoError(t, err)
	assert.Len(t, auctions, 2)
}
