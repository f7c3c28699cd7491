package web

import (
	"github.com/gin-gonic/gin"

	"starbid/service"
)

// RouterConfig carries the settings the HTTP layer needs
type RouterConfig struct {
	TelegramBotToken string
	SessionSecretKey string
	PaymentSecretKey string
	BidHistoryLimit  int
}

// Services bundles the domain services the HTTP API is built on
type Services struct {
	Auction   service.AuctionService
	Bid       service.BidService
	User      service.UserService
	Watchlist service.WatchlistService
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(cfg RouterConfig, services Services) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestLogger)

	sessions := newSessionCodec(cfg.SessionSecretKey)
	handler := NewHandler(services.Auction, services.Bid, services.User, services.Watchlist, cfg.BidHistoryLimit)
	auth := NewAuthHandler(services.User, sessions, cfg.TelegramBotToken)
	payments := NewPaymentHandler(services.User, cfg.PaymentSecretKey)

	authRequired := requireAuth(sessions)

	api := router.Group("/api")
	{
		api.GET("/auctions", handler.ListActiveAuctions)
		api.GET("/auctions/ended", handler.ListEndedAuctions)
		api.GET("/auctions/:id", handler.GetAuction)
		api.POST("/auctions", authRequired, handler.CreateAuction)
		api.POST("/auctions/:id/bids", authRequired, handler.PlaceBid)
		api.POST("/auctions/:id/watch", authRequired, handler.WatchAuction)
		api.DELETE("/auctions/:id/watch", authRequired, handler.UnwatchAuction)
		api.GET("/watchlist", authRequired, handler.GetWatchlist)
		api.GET("/my/auctions", authRequired, handler.GetMyAuctions)
		api.GET("/my/bids", authRequired, handler.GetMyBids)
		api.GET("/me", authRequired, handler.GetMe)
		api.GET("/me/history", authRequired, handler.GetMyHistory)
	}

	router.POST("/auth/telegram", auth.TelegramLogin)
	router.POST("/auth/logout", auth.Logout)
	router.POST("/payments/webhook", payments.Webhook)

	return router
}
