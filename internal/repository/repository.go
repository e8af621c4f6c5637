package repository

import (
	"auction-sync/internal/auctionerrors"
	model "auction-sync/internal/models"
	"fmt"
	"sync"
	"time"
)

// AuctionStore defines the auction registry of one client
type AuctionStore interface {
	UpsertCreated(auction model.Auction) bool
	ApplyUpdate(auctionID string, patch model.AuctionPatch) error
	ReplaceAll(auctions []model.Auction)
	QueryByState(state model.AuctionState) []model.Auction
	ListAuctions() []model.Auction
	GetAuction(auctionID string) (model.Auction, error)
	RecordBid(auctionID string, bid model.Bid) error
	Finalize(auctionID, winner string) (bool, error)
	SetRemaining(auctionID string, remaining time.Duration) error
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionStore.
// Writes come from the owning node's event loop; the lock lets readers on
// other goroutines take consistent copies.
type MemoryRepo struct {
	mu       sync.RWMutex
	auctions map[string]*model.Auction // key: auctionID -> value: auction record
	order    []string                  // auctionIDs in insertion order
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions: make(map[string]*model.Auction),
	}
}

// UpsertCreated inserts an auction whose id is unseen. A duplicate creation
// broadcast leaves the existing record untouched and returns false.
func (r *MemoryRepo) UpsertCreated(auction model.Auction) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.ID]; ok {
		return false
	}
	a := auction.Clone()
	if a.Bids == nil {
		a.Bids = []model.Bid{}
	}
	r.auctions[a.ID] = &a
	r.order = append(r.order, a.ID)
	return true
}

// ApplyUpdate merges patch into a known Active auction. A patch moves the
// price only together with a lastBid above the current price, so currentPrice
// always equals lastBid.Price; anything else is dropped.
func (r *MemoryRepo) ApplyUpdate(auctionID string, patch model.AuctionPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("apply update to auction %s: %w", auctionID, auctionerrors.ErrUnknownAuction)
	}
	if a.State != model.StateActive || patch.LastBid == nil {
		return nil
	}

	lb := *patch.LastBid
	if lb.Price <= a.CurrentPrice {
		return nil
	}
	if patch.CurrentPrice != nil && *patch.CurrentPrice != lb.Price {
		return nil
	}
	a.CurrentPrice = lb.Price
	a.LastBid = &lb
	return nil
}

// ReplaceAll discards local state and installs snapshot in its order.
func (r *MemoryRepo) ReplaceAll(snapshot []model.Auction) {
	auctions := make(map[string]*model.Auction, len(snapshot))
	order := make([]string, 0, len(snapshot))
	for _, in := range snapshot {
		a := in.Clone()
		if a.Bids == nil {
			a.Bids = []model.Bid{}
		}
		if _, dup := auctions[a.ID]; !dup {
			order = append(order, a.ID)
		}
		auctions[a.ID] = &a
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.auctions = auctions
	r.order = order
}

// QueryByState returns copies of all auctions in state, in insertion order
func (r *MemoryRepo) QueryByState(state model.AuctionState) []model.Auction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Auction, 0)
	for _, id := range r.order {
		if a := r.auctions[id]; a.State == state {
			out = append(out, a.Clone())
		}
	}
	return out
}

// ListAuctions returns copies of every auction, in insertion order
func (r *MemoryRepo) ListAuctions() []model.Auction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Auction, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.auctions[id].Clone())
	}
	return out
}

// GetAuction returns a copy of one auction
func (r *MemoryRepo) GetAuction(auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a.Clone(), nil
}

// RecordBid appends an accepted bid and moves the price and last-bid pointer.
// Acceptance rules belong to the caller.
func (r *MemoryRepo) RecordBid(auctionID string, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("record bid for auction %s: %w", auctionID, auctionerrors.ErrUnknownAuction)
	}

	a.Bids = append(a.Bids, bid)
	a.CurrentPrice = bid.Price
	lb := bid
	a.LastBid = &lb
	return nil
}

// Finalize moves an Active auction to Finalized with winner. It returns false
// when the auction already left Active, which makes repeated finalization a no-op.
func (r *MemoryRepo) Finalize(auctionID, winner string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return false, fmt.Errorf("finalize auction %s: %w", auctionID, auctionerrors.ErrUnknownAuction)
	}
	if a.State.IsTerminal() {
		return false, nil
	}

	a.State = model.StateFinalized
	a.Winner = winner
	a.Remaining = 0
	return true, nil
}

// SetRemaining stores the display-only countdown of an auction
func (r *MemoryRepo) SetRemaining(auctionID string, remaining time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("set remaining for auction %s: %w", auctionID, auctionerrors.ErrUnknownAuction)
	}
	a.Remaining = remaining
	return nil
}

var _ AuctionStore = (*MemoryRepo)(nil)
