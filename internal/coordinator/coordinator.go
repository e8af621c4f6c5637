// Package coordinator implements the join handshake: a (re)connecting client
// asks for state and every peer answers with its full auction list.
package coordinator

import (
	"context"
	"fmt"

	"auction-sync/internal/events"
	"auction-sync/internal/repository"
	"auction-sync/internal/transport"
	"auction-sync/utils"
)

// Coordinator runs the sync handshake for one client.
type Coordinator struct {
	self string
	repo repository.AuctionStore
	pub  events.Publisher
}

// New creates a Coordinator for the client identified by self.
func New(self string, repo repository.AuctionStore, pub events.Publisher) *Coordinator {
	return &Coordinator{self: self, repo: repo, pub: pub}
}

// RequestSync asks every connected client for its auction list.
func (c *Coordinator) RequestSync(ctx context.Context) error {
	if err := c.pub.Publish(ctx, events.SyncRequest{RequesterID: c.self}, transport.ScopeAll); err != nil {
		return fmt.Errorf("coordinator: sync request: %w", err)
	}
	utils.Info("Sync requested", map[string]any{"client_id": c.self})
	return nil
}

// HandleRequest answers a peer's sync request with this client's full auction
// list. The client's own request echo is ignored and reported as false.
func (c *Coordinator) HandleRequest(ctx context.Context, ev events.SyncRequest) (bool, error) {
	if ev.RequesterID == c.self {
		return false, nil
	}

	snapshot := events.SyncSnapshot{RequesterID: ev.RequesterID, Auctions: c.repo.ListAuctions()}
	if err := c.pub.Publish(ctx, snapshot, transport.ScopeOthers); err != nil {
		return false, fmt.Errorf("coordinator: answer %s: %w", ev.RequesterID, err)
	}
	utils.Debug("Sync snapshot sent", map[string]any{"requester_id": ev.RequesterID, "auctions": len(snapshot.Auctions)})
	return true, nil
}

// HandleSnapshot installs a snapshot addressed to this client, replacing the
// whole registry. Every responder's snapshot is applied; the last one wins.
// Snapshots addressed to another client are ignored and reported as false.
func (c *Coordinator) HandleSnapshot(ev events.SyncSnapshot) bool {
	if ev.RequesterID != "" && ev.RequesterID != c.self {
		return false
	}
	c.repo.ReplaceAll(ev.Auctions)
	utils.Info("Sync snapshot applied", map[string]any{"client_id": c.self, "auctions": len(ev.Auctions)})
	return true
}
