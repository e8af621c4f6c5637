// Package lifecycle finalizes expired auctions. Every client runs its own
// controller against its local clock; redundant finalizations are expected.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"auction-sync/internal/events"
	model "auction-sync/internal/models"
	"auction-sync/internal/repository"
	"auction-sync/internal/transport"
	"auction-sync/utils"

	"github.com/jonboulle/clockwork"
)

// DefaultTickInterval is how often active auctions are scanned.
const DefaultTickInterval = time.Second

// Controller scans active auctions on every tick.
type Controller struct {
	repo  repository.AuctionStore
	pub   events.Publisher
	clock clockwork.Clock
}

// NewController creates a Controller. A nil clock means the real clock.
func NewController(repo repository.AuctionStore, pub events.Publisher, clock clockwork.Clock) *Controller {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Controller{repo: repo, pub: pub, clock: clock}
}

// Tick finalizes every active auction whose end time has passed and refreshes
// the countdown of the others. It returns the auctions this call finalized.
func (c *Controller) Tick(ctx context.Context) []model.Auction {
	now := c.clock.Now()
	var finalized []model.Auction

	for _, a := range c.repo.QueryByState(model.StateActive) {
		remaining := a.RemainingAt(now)
		if remaining > 0 {
			if err := c.repo.SetRemaining(a.ID, remaining); err != nil {
				utils.Debug("lifecycle: countdown update skipped", map[string]any{"auction_id": a.ID, "error": err.Error()})
			}
			continue
		}

		winner := a.LeadingUser()
		ev := events.AuctionFinalized{AuctionID: a.ID, Winner: winner}
		if err := c.pub.Publish(ctx, ev, transport.ScopeAll); err != nil {
			// peers detect expiry on their own
			utils.Warn("lifecycle: finalization broadcast failed", map[string]any{"auction_id": a.ID, "error": err.Error()})
		}

		changed, err := c.ApplyFinalization(ev)
		if err != nil {
			utils.Warn("lifecycle: local finalization failed", map[string]any{"auction_id": a.ID, "error": err.Error()})
			continue
		}
		if changed {
			if got, err := c.repo.GetAuction(a.ID); err == nil {
				finalized = append(finalized, got)
			}
		}
	}
	return finalized
}

// ApplyFinalization marks an auction Finalized with the event's winner. It
// reports false when the auction had already left Active.
func (c *Controller) ApplyFinalization(ev events.AuctionFinalized) (bool, error) {
	changed, err := c.repo.Finalize(ev.AuctionID, ev.Winner)
	if err != nil {
		return false, fmt.Errorf("lifecycle: %w", err)
	}
	if changed {
		utils.Info("Auction finalized", map[string]any{"auction_id": ev.AuctionID, "winner": ev.Winner})
	}
	return changed, nil
}
