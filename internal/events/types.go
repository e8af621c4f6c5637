// Package events defines the auction protocol's event variants and the codec
// that turns transport payloads into them.
package events

import (
	model "auction-sync/internal/models"
)

// Type is the wire discriminator of an event.
type Type string

const (
	TypeAuctionCreated   Type = "auction_created"
	TypeAuctionUpdated   Type = "auction_updated"
	TypeBidPlaced        Type = "bid_placed"
	TypeAuctionFinalized Type = "auction_finalized"
	TypeSyncRequest      Type = "sync_request"
	TypeSyncSnapshot     Type = "sync_snapshot"
)

// Event is implemented by every protocol variant.
type Event interface {
	EventType() Type
}

// AuctionCreated announces a new auction with its full record.
type AuctionCreated struct {
	Auction model.Auction `json:"auction"`
}

// AuctionUpdated merges mutable fields into a known auction.
type AuctionUpdated struct {
	ID      string             `json:"id" validate:"required"`
	Changes model.AuctionPatch `json:"changes"`
}

// BidPlaced carries a bid every client evaluates against its own replica.
type BidPlaced struct {
	AuctionID string  `json:"auctionId" validate:"required"`
	User      string  `json:"user" validate:"required"`
	Price     float64 `json:"price" validate:"gt=0"`
}

// AuctionFinalized marks an auction as finished. Winner is empty when nobody bid.
type AuctionFinalized struct {
	AuctionID string `json:"auctionId" validate:"required"`
	Winner    string `json:"winner,omitempty"`
}

// SyncRequest asks every peer for its full auction list.
type SyncRequest struct {
	RequesterID string `json:"requesterId" validate:"required"`
}

// SyncSnapshot is one peer's full auction list. RequesterID names the client
// the snapshot answers; an empty value addresses whoever receives it.
type SyncSnapshot struct {
	RequesterID string          `json:"requesterId,omitempty"`
	Auctions    []model.Auction `json:"auctions" validate:"required,dive"`
}

func (AuctionCreated) EventType() Type   { return TypeAuctionCreated }
func (AuctionUpdated) EventType() Type   { return TypeAuctionUpdated }
func (BidPlaced) EventType() Type        { return TypeBidPlaced }
func (AuctionFinalized) EventType() Type { return TypeAuctionFinalized }
func (SyncRequest) EventType() Type      { return TypeSyncRequest }
func (SyncSnapshot) EventType() Type     { return TypeSyncSnapshot }
