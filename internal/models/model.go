package models

import (
	"fmt"
	"strings"
	"time"
)

// AuctionState is the lifecycle state of an auction.
type AuctionState string

const (
	StateActive    AuctionState = "active"
	StateFinalized AuctionState = "finalized"
	// StateCancelled is reserved. No event in the protocol produces it yet.
	StateCancelled AuctionState = "cancelled"
)

// IsTerminal reports whether the state has no outgoing transitions.
func (s AuctionState) IsTerminal() bool {
	return s == StateFinalized || s == StateCancelled
}

// ParseAuctionState converts a user supplied state name into an AuctionState.
func ParseAuctionState(s string) (AuctionState, error) {
	switch st := AuctionState(strings.ToLower(strings.TrimSpace(s))); st {
	case StateActive, StateFinalized, StateCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown auction state %q", s)
	}
}

// Bid represents a user's accepted bid on an auction
type Bid struct {
	User      string    `json:"user" validate:"required"`
	Price     float64   `json:"price" validate:"gt=0"`
	Timestamp time.Time `json:"timestamp"`
}

// Auction is one client's replica of an auction record
type Auction struct {
	ID             string       `json:"id" validate:"required"`
	Title          string       `json:"title" validate:"required"`
	Description    string       `json:"description"`
	InitialPrice   float64      `json:"initialPrice" validate:"gt=0"`
	CurrentPrice   float64      `json:"currentPrice" validate:"gtefield=InitialPrice"`
	MinIncrement   float64      `json:"minIncrement" validate:"gt=0"`
	StartTimestamp time.Time    `json:"startTimestamp" validate:"required"`
	EndTimestamp   time.Time    `json:"endTimestamp" validate:"required,gtfield=StartTimestamp"`
	State          AuctionState `json:"state" validate:"oneof=active finalized cancelled"`
	Bids           []Bid        `json:"bids" validate:"dive"`
	LastBid        *Bid         `json:"lastBid,omitempty"`
	Winner         string       `json:"winner,omitempty"`
	Creator        string       `json:"creator"`

	// Remaining is refreshed by the local lifecycle tick and never broadcast.
	Remaining time.Duration `json:"-"`
}

// AuctionPatch carries the mutable fields an auction_updated event may merge.
type AuctionPatch struct {
	CurrentPrice *float64 `json:"currentPrice,omitempty" validate:"omitempty,gt=0"`
	LastBid      *Bid     `json:"lastBid,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p AuctionPatch) IsEmpty() bool {
	return p.CurrentPrice == nil && p.LastBid == nil
}

// Clone returns a deep copy so callers never share bid slices or pointers with the registry.
func (a Auction) Clone() Auction {
	out := a
	if a.Bids != nil {
		out.Bids = append([]Bid(nil), a.Bids...)
	}
	if a.LastBid != nil {
		lb := *a.LastBid
		out.LastBid = &lb
	}
	return out
}

// Duration returns the configured auction length.
func (a Auction) Duration() time.Duration {
	return a.EndTimestamp.Sub(a.StartTimestamp)
}

// RemainingAt returns the time left before the auction expires at now.
func (a Auction) RemainingAt(now time.Time) time.Duration {
	return a.EndTimestamp.Sub(now)
}

// LeadingUser returns the user of the last applied bid, or "" when there is none.
func (a Auction) LeadingUser() string {
	if a.LastBid == nil {
		return ""
	}
	return a.LastBid.User
}

// NewAuctionInput describes an auction the local user wants to create
type NewAuctionInput struct {
	Title           string
	Description     string
	InitialPrice    float64
	MinIncrement    float64
	DurationMinutes int
}
