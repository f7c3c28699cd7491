package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"starbid/models"
	"starbid/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const defaultEndedPageSize = 20

// Handler holds the services the HTTP API is built on
type Handler struct {
	auctionService   service.AuctionService
	bidService       service.BidService
	userService      service.UserService
	watchlistService service.WatchlistService
	bidHistoryLimit  int
}

// NewHandler creates the HTTP API handler
func NewHandler(
	auctionService service.AuctionService,
	bidService service.BidService,
	userService service.UserService,
	watchlistService service.WatchlistService,
	bidHistoryLimit int,
) *Handler {
	return &Handler{
		auctionService:   auctionService,
		bidService:       bidService,
		userService:      userService,
		watchlistService: watchlistService,
		bidHistoryLimit:  bidHistoryLimit,
	}
}

// ListActiveAuctions handles GET /api/auctions
func (h *Handler) ListActiveAuctions(c *gin.Context) {
	auctions, err := h.auctionService.ListActive(c.Request.Context())
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithField("error", err).Error("Failed to list active auctions")
		return
	}

	jsonResponse(c, http.StatusOK, newAuctionResponses(auctions, time.Now()), "active auctions")
}

// ListEndedAuctions handles GET /api/auctions/ended
func (h *Handler) ListEndedAuctions(c *gin.Context) {
	limit := parseIntQuery(c, "limit", defaultEndedPageSize)
	offset := parseIntQuery(c, "offset", 0)

	auctions, err := h.auctionService.ListEnded(c.Request.Context(), limit, offset)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithField("error", err).Error("Failed to list ended auctions")
		return
	}

	jsonResponse(c, http.StatusOK, newAuctionResponses(auctions, time.Now()), "ended auctions")
}

// GetAuction handles GET /api/auctions/:id
func (h *Handler) GetAuction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	auction, err := h.auctionService.GetAuction(ctx, id)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	bids, err := h.auctionService.GetBidHistory(ctx, id, h.bidHistoryLimit)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithFields(log.Fields{
			"auctionID": id,
			"error":     err,
		}).Error("Failed to load bid history")
		return
	}

	jsonResponse(c, http.StatusOK, gin.H{
		"auction": newAuctionResponse(auction, time.Now()),
		"bids":    newBidResponses(bids),
	}, "auction detail")
}

// CreateAuction handles POST /api/auctions
func (h *Handler) CreateAuction(c *gin.Context) {
	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid request payload: %w", err), "invalid request payload")
		return
	}

	spec := models.AuctionSpec{
		Title:                req.Title,
		Description:          req.Description,
		Type:                 models.AuctionType(req.Type),
		StartingPrice:        req.StartingPrice,
		DutchPriceDecrement:  req.DutchPriceDecrement,
		DutchIntervalSeconds: req.DutchIntervalSeconds,
	}
	if req.EndTime != "" {
		endTime, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid end_time: %w", err), "invalid request payload")
			return
		}
		spec.EndTime = endTime
	}

	creatorID := authenticatedUserID(c)
	auction, err := h.auctionService.CreateAuction(c.Request.Context(), spec, creatorID)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithFields(log.Fields{
			"creatorID": creatorID,
			"error":     err,
		}).Warn("Auction creation rejected")
		return
	}

	jsonResponse(c, http.StatusCreated, newAuctionResponse(auction, time.Now()), "auction created")
}

// PlaceBid handles POST /api/auctions/:id/bids
func (h *Handler) PlaceBid(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid request payload: %w", err), "invalid request payload")
		return
	}

	bidderID := authenticatedUserID(c)
	receipt, err := h.bidService.PlaceBid(c.Request.Context(), id, bidderID, req.Amount)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		log.WithFields(log.Fields{
			"auctionID": id,
			"bidderID":  bidderID,
			"amount":    req.Amount,
			"error":     err,
		}).Info("Bid rejected")
		return
	}

	jsonResponse(c, http.StatusCreated, bidReceiptResponse{
		Bid:           newBidResponse(receipt.Bid),
		NewPrice:      receipt.NewPrice,
		AuctionClosed: receipt.AuctionClosed,
	}, "bid accepted")
}

// WatchAuction handles POST /api/auctions/:id/watch
func (h *Handler) WatchAuction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	userID := authenticatedUserID(c)
	if err := h.watchlistService.Watch(c.Request.Context(), userID, id); err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	jsonResponse(c, http.StatusOK, nil, "auction added to watchlist")
}

// UnwatchAuction handles DELETE /api/auctions/:id/watch
func (h *Handler) UnwatchAuction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	userID := authenticatedUserID(c)
	if err := h.watchlistService.Unwatch(c.Request.Context(), userID, id); err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	jsonResponse(c, http.StatusOK, nil, "auction removed from watchlist")
}

// GetWatchlist handles GET /api/watchlist
func (h *Handler) GetWatchlist(c *gin.Context) {
	userID := authenticatedUserID(c)
	auctions, err := h.watchlistService.List(c.Request.Context(), userID)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	jsonResponse(c, http.StatusOK, newAuctionResponses(auctions, time.Now()), "watchlist")
}

// GetMyAuctions handles GET /api/my/auctions
func (h *Handler) GetMyAuctions(c *gin.Context) {
	userID := authenticatedUserID(c)
	auctions, err := h.auctionService.ListByCreator(c.Request.Context(), userID)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	jsonResponse(c, http.StatusOK, newAuctionResponses(auctions, time.Now()), "my auctions")
}

// GetMyBids handles GET /api/my/bids
func (h *Handler) GetMyBids(c *gin.Context) {
	userID := authenticatedUserID(c)
	limit := parseIntQuery(c, "limit", defaultEndedPageSize)

	bids, err := h.bidService.ListByBidder(c.Request.Context(), userID, limit)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	jsonResponse(c, http.StatusOK, newBidResponses(bids), "my bids")
}

// GetMyHistory handles GET /api/me/history
func (h *Handler) GetMyHistory(c *gin.Context) {
	userID := authenticatedUserID(c)
	limit := parseIntQuery(c, "limit", defaultEndedPageSize)

	history, err := h.userService.GetBalanceHistory(c.Request.Context(), userID, limit)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	jsonResponse(c, http.StatusOK, newBalanceHistoryResponses(history), "balance history")
}

// GetMe handles GET /api/me
func (h *Handler) GetMe(c *gin.Context) {
	userID := authenticatedUserID(c)
	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		status, message := mapServiceError(err)
		jsonError(c, status, err, message)
		return
	}

	jsonResponse(c, http.StatusOK, gin.H{
		"id":          user.ID,
		"telegram_id": user.TelegramID,
		"username":    user.Username,
		"xtr_balance": user.XTRBalance,
	}, "profile")
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("invalid auction id"), "invalid auction id")
		return 0, false
	}
	return id, true
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
