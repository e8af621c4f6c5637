package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	model "auction-sync/internal/models"
	"auction-sync/internal/node"
	"auction-sync/internal/notify"
	"auction-sync/services/auction/helpers"
	"auction-sync/utils"

	"github.com/gin-gonic/gin"
)

// sseBufferSize bounds the notifications queued for one slow SSE client.
const sseBufferSize = 32

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, input model.NewAuctionInput) (model.Auction, error)
	PlaceBid(ctx context.Context, auctionID string, price float64) error
	PlaceIncrementBid(ctx context.Context, auctionID string) (float64, error)
	ListAuctions(state model.AuctionState) []model.Auction
	GetAuction(auctionID string) (model.Auction, error)
	Status() node.Status
}

type AuctionHandler struct {
	service AuctionServiceInterface
	emitter *notify.Emitter
}

func NewAuctionHandler(service AuctionServiceInterface, emitter *notify.Emitter) *AuctionHandler {
	return &AuctionHandler{service: service, emitter: emitter}
}

func (h *AuctionHandler) fail(c *gin.Context, handlerName string, err error, fields map[string]any) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)

	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": request failed", fields)
		return
	}
	utils.Warn(handlerName+": request rejected", fields)
}

// ListAuctionsHandler handles GET /auctions?state=
func (h *AuctionHandler) ListAuctionsHandler(c *gin.Context) {
	var state model.AuctionState
	if raw := c.Query("state"); raw != "" {
		parsed, err := model.ParseAuctionState(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, err, "invalid state filter")
			return
		}
		state = parsed
	}

	auctions := helpers.ToAuctionResponses(h.service.ListAuctions(state))
	utils.JSONResponse(c, http.StatusOK, auctions, "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"state": string(state),
		"count": len(auctions),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(auctionID)
	if err != nil {
		h.fail(c, "GetAuctionHandler", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.ToAuctionResponse(auction), "auction retrieved successfully")
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), req.ToInput())
	if err != nil {
		h.fail(c, "CreateAuctionHandler", err, map[string]any{"title": req.Title})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id":    auction.ID,
		"initial_price": auction.InitialPrice,
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	if err := h.service.PlaceBid(c.Request.Context(), auctionID, req.Price); err != nil {
		h.fail(c, "PlaceBidHandler", err, map[string]any{"auction_id": auctionID, "price": req.Price})
		return
	}

	resp := helpers.BidSubmittedResponse{AuctionID: auctionID, User: h.service.Status().User, Price: req.Price}
	utils.JSONResponse(c, http.StatusAccepted, resp, "bid broadcast successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid broadcast successfully", map[string]any{
		"auction_id": auctionID,
		"price":      req.Price,
	})
}

// PlaceIncrementBidHandler handles POST /auctions/:auction_id/bids/increment
func (h *AuctionHandler) PlaceIncrementBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	price, err := h.service.PlaceIncrementBid(c.Request.Context(), auctionID)
	if err != nil {
		h.fail(c, "PlaceIncrementBidHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := helpers.BidSubmittedResponse{AuctionID: auctionID, User: h.service.Status().User, Price: price}
	utils.JSONResponse(c, http.StatusAccepted, resp, "bid broadcast successfully")
}

// StatusHandler handles GET /status
func (h *AuctionHandler) StatusHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, h.service.Status(), "status retrieved successfully")
}

// EventsHandler handles GET /events, streaming notifications as server-sent
// events until the client goes away.
func (h *AuctionHandler) EventsHandler(c *gin.Context) {
	ch := make(chan notify.Notification, sseBufferSize)
	unsubscribe := h.emitter.Subscribe(func(n notify.Notification) {
		select {
		case ch <- n:
		default:
			utils.Warn("EventsHandler: dropping notification for slow client", map[string]any{"kind": string(n.Kind)})
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("status", h.service.Status())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n := <-ch:
			c.SSEvent(string(n.Kind), n)
			return true
		}
	})
}
