package helpers

import (
	"time"

	model "auction-sync/internal/models"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	InitialPrice    float64 `json:"initial_price"`
	MinIncrement    float64 `json:"min_increment"`
	DurationMinutes int     `json:"duration_minutes"`
}

type PlaceBidRequest struct {
	Price float64 `json:"price" binding:"required,gt=0"`
}

type BidResponse struct {
	User      string  `json:"user"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

type BidSubmittedResponse struct {
	AuctionID string  `json:"auction_id"`
	User      string  `json:"user"`
	Price     float64 `json:"price"`
}

type AuctionResponse struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	InitialPrice     float64       `json:"initial_price"`
	CurrentPrice     float64       `json:"current_price"`
	MinIncrement     float64       `json:"min_increment"`
	StartTime        string        `json:"start_time"`
	EndTime          string        `json:"end_time"`
	State            string        `json:"state"`
	Bids             []BidResponse `json:"bids"`
	LastBid          *BidResponse  `json:"last_bid,omitempty"`
	Winner           string        `json:"winner,omitempty"`
	Creator          string        `json:"creator"`
	RemainingSeconds int64         `json:"remaining_seconds"`
}

// ToInput converts the request body into the creation input.
func (r CreateAuctionRequest) ToInput() model.NewAuctionInput {
	return model.NewAuctionInput{
		Title:           r.Title,
		Description:     r.Description,
		InitialPrice:    r.InitialPrice,
		MinIncrement:    r.MinIncrement,
		DurationMinutes: r.DurationMinutes,
	}
}

func toBidResponse(b model.Bid) BidResponse {
	return BidResponse{
		User:      b.User,
		Price:     b.Price,
		Timestamp: b.Timestamp.UTC().Format(time.RFC3339),
	}
}

// ToAuctionResponse maps a registry record to its API shape.
func ToAuctionResponse(a model.Auction) AuctionResponse {
	bids := make([]BidResponse, 0, len(a.Bids))
	for _, b := range a.Bids {
		bids = append(bids, toBidResponse(b))
	}

	resp := AuctionResponse{
		ID:               a.ID,
		Title:            a.Title,
		Description:      a.Description,
		InitialPrice:     a.InitialPrice,
		CurrentPrice:     a.CurrentPrice,
		MinIncrement:     a.MinIncrement,
		StartTime:        a.StartTimestamp.UTC().Format(time.RFC3339),
		EndTime:          a.EndTimestamp.UTC().Format(time.RFC3339),
		State:            string(a.State),
		Bids:             bids,
		Winner:           a.Winner,
		Creator:          a.Creator,
		RemainingSeconds: int64(a.Remaining / time.Second),
	}
	if a.LastBid != nil {
		lb := toBidResponse(*a.LastBid)
		resp.LastBid = &lb
	}
	return resp
}

// ToAuctionResponses maps a list of records.
func ToAuctionResponses(auctions []model.Auction) []AuctionResponse {
	out := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, ToAuctionResponse(a))
	}
	return out
}
