// Package notify surfaces user-facing notifications derived from applied
// auction state changes and fans them out to sinks (SSE clients, the log,
// chat webhooks).
package notify

import (
	"fmt"
	"sync"
	"time"

	model "auction-sync/internal/models"
	"auction-sync/utils"
)

// Kind classifies a notification.
type Kind string

const (
	KindAuctionCreated   Kind = "auction_created"
	KindBidPlaced        Kind = "bid_placed"
	KindAuctionFinalized Kind = "auction_finalized"
	KindError            Kind = "error"
)

// Notification is one locally observed event worth showing to the user.
type Notification struct {
	Kind      Kind      `json:"kind"`
	AuctionID string    `json:"auctionId,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}

// Emitter is a synchronous fan-out of notifications. Handlers run on the
// caller's goroutine and must not block.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Notification)
}

// NewEmitter creates an Emitter with no subscribers.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[int]func(Notification))}
}

// Subscribe registers h and returns a func that removes it.
func (e *Emitter) Subscribe(h func(Notification)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.handlers[id] = h
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers, id)
			e.mu.Unlock()
		})
	}
}

// Emit hands n to every subscriber.
func (e *Emitter) Emit(n Notification) {
	e.mu.RLock()
	handlers := make([]func(Notification), 0, len(e.handlers))
	for _, h := range e.handlers {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(n)
	}
}

// LogSink writes every notification to the structured log.
func LogSink(n Notification) {
	fields := map[string]any{"kind": string(n.Kind), "auction_id": n.AuctionID, "title": n.Title}
	if n.Kind == KindError {
		utils.Warn(n.Message, fields)
		return
	}
	utils.Info(n.Message, fields)
}

// ForCreated describes a newly inserted auction.
func ForCreated(a model.Auction, at time.Time) Notification {
	return Notification{
		Kind:      KindAuctionCreated,
		AuctionID: a.ID,
		Title:     "New auction",
		Message:   fmt.Sprintf("%s opened %q at %.2f", a.Creator, a.Title, a.InitialPrice),
		Time:      at,
	}
}

// ForBid describes an applied bid. Bids by the local user produce nothing.
func ForBid(a model.Auction, bid model.Bid, localUser string) (Notification, bool) {
	if bid.User == localUser {
		return Notification{}, false
	}
	return Notification{
		Kind:      KindBidPlaced,
		AuctionID: a.ID,
		Title:     "New bid",
		Message:   fmt.Sprintf("%s bid %.2f on %q", bid.User, bid.Price, a.Title),
		Time:      bid.Timestamp,
	}, true
}

// ForFinalized describes a finished auction and its winner.
func ForFinalized(a model.Auction, at time.Time) Notification {
	msg := fmt.Sprintf("%q ended without bids", a.Title)
	if a.Winner != "" {
		msg = fmt.Sprintf("%q won by %s at %.2f", a.Title, a.Winner, a.CurrentPrice)
	}
	return Notification{
		Kind:      KindAuctionFinalized,
		AuctionID: a.ID,
		Title:     "Auction finished",
		Message:   msg,
		Time:      at,
	}
}

// ForError reports a failed local action back to the user.
func ForError(auctionID string, err error, at time.Time) Notification {
	return Notification{
		Kind:      KindError,
		AuctionID: auctionID,
		Title:     "Action failed",
		Message:   err.Error(),
		Time:      at,
	}
}
