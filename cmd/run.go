package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"starbid/bot"
	"starbid/config"
	"starbid/database"
	"starbid/events"
	"starbid/repository"
	"starbid/service"
	"starbid/web"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	setupLogging(cfg.Environment)

	log.Info("Starting starbid...")

	// Initialize database connection
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established")

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	userService := service.NewUserService(uowFactory, cfg.StartingBalance)
	auctionService := service.NewAuctionService(uowFactory)
	bidService := service.NewBidService(uowFactory)
	watchlistService := service.NewWatchlistService(uowFactory)

	// Initialize Telegram bot
	telegramBot, err := bot.New(bot.Config{
		Token:                cfg.TelegramBotToken,
		PaymentProviderToken: cfg.PaymentProviderToken,
	}, userService)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	go telegramBot.Start(ctx)

	// The closer notifies winners and creators over Telegram
	closerService := service.NewCloserService(uowFactory, telegramBot.NewNotifier())

	// Initialize HTTP API
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := web.SetupRouter(web.RouterConfig{
		TelegramBotToken: cfg.TelegramBotToken,
		SessionSecretKey: cfg.SessionSecretKey,
		PaymentSecretKey: cfg.PaymentSecretKey,
		BidHistoryLimit:  cfg.BidHistoryLimit,
	}, web.Services{
		Auction:   auctionService,
		Bid:       bidService,
		User:      userService,
		Watchlist: watchlistService,
	})

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("error", err).Error("HTTP server stopped")
		}
	}()

	// Periodic auction resolution
	go runCloserLoop(ctx, closerService, cfg.CloserInterval)
	go runDutchDecayLoop(ctx, closerService, cfg.DutchDecayInterval)

	log.WithField("environment", cfg.Environment).Info("starbid is running")
	<-ctx.Done()

	// Cleanup resources
	log.Info("Shutting down...")
	telegramBot.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err).Error("HTTP server shutdown failed")
	}

	db.Close()
	log.Info("Shutdown completed")

	return nil
}

// runCloserLoop finalizes expired auctions on a fixed interval. Passes run
// sequentially so a slow pass never overlaps the next one.
func runCloserLoop(ctx context.Context, closer service.CloserService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed, err := closer.RunCloserPass(ctx, time.Now())
			if err != nil {
				log.WithField("error", err).Error("Closer pass failed")
				continue
			}
			if closed > 0 {
				log.WithField("closed", closed).Info("Closer pass finished")
			}
		}
	}
}

// runDutchDecayLoop recomputes stored dutch prices on a fixed interval
func runDutchDecayLoop(ctx context.Context, closer service.CloserService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := closer.RunDutchDecayPass(ctx, time.Now()); err != nil {
				log.WithField("error", err).Error("Dutch decay pass failed")
			}
		}
	}
}

func setupLogging(environment string) {
	if environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
		log.SetLevel(log.InfoLevel)
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.DebugLevel)
}
