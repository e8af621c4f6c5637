// Package node runs one auction client: a single event loop that owns the
// client's registry and serializes transport deliveries, lifecycle ticks and
// local commands.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"auction-sync/internal/auctionerrors"
	bidding "auction-sync/internal/biddingService"
	"auction-sync/internal/coordinator"
	"auction-sync/internal/events"
	"auction-sync/internal/lifecycle"
	model "auction-sync/internal/models"
	"auction-sync/internal/notify"
	"auction-sync/internal/repository"
	"auction-sync/internal/scheduler"
	"auction-sync/internal/transport"
	"auction-sync/utils"

	"github.com/jonboulle/clockwork"
)

const defaultInboxSize = 256

// Identity names the local client. SessionID addresses sync traffic;
// DisplayName is what other users see on bids.
type Identity struct {
	SessionID   string
	DisplayName string
}

// User returns the name bids are placed under.
func (i Identity) User() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.SessionID
}

// Options configures a Node. Transport is required.
type Options struct {
	Identity     Identity
	Transport    transport.Transport
	Repo         repository.AuctionStore
	Clock        clockwork.Clock
	Scheduler    scheduler.Scheduler
	Emitter      *notify.Emitter
	TickInterval time.Duration
	InboxSize    int
}

// Status is the connection summary shown to the UI.
type Status struct {
	SessionID string `json:"session_id"`
	User      string `json:"user"`
	Connected bool   `json:"connected"`
	Running   bool   `json:"running"`
	Ticks     int64  `json:"ticks"`
}

type command struct {
	run    func() error
	result chan error
}

// Node is one client replica.
type Node struct {
	id       Identity
	tr       transport.Transport
	repo     repository.AuctionStore
	pub      events.Publisher
	bids     *bidding.BiddingService
	life     *lifecycle.Controller
	sync     *coordinator.Coordinator
	sched    scheduler.Scheduler
	clock    clockwork.Clock
	emitter  *notify.Emitter
	interval time.Duration

	inbox    chan []byte
	ticks    chan time.Time
	commands chan command

	mu      sync.Mutex
	active  bool
	stopped chan struct{} // closed when the current Run returns
	running atomic.Bool
	tickN   atomic.Int64

	wasConnected bool // loop-owned
}

// New wires a Node from opts.
func New(opts Options) (*Node, error) {
	if opts.Transport == nil {
		return nil, errors.New("node: transport is required")
	}
	if opts.Identity.SessionID == "" {
		return nil, errors.New("node: session id is required")
	}
	if opts.Repo == nil {
		opts.Repo = repository.NewMemoryRepo()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = scheduler.New(opts.Clock)
	}
	if opts.Emitter == nil {
		opts.Emitter = notify.NewEmitter()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = lifecycle.DefaultTickInterval
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}

	pub := events.NewPublisher(opts.Transport)
	stopped := make(chan struct{})
	close(stopped)

	return &Node{
		id:       opts.Identity,
		tr:       opts.Transport,
		repo:     opts.Repo,
		pub:      pub,
		bids:     bidding.NewBiddingService(opts.Repo, pub, opts.Clock),
		life:     lifecycle.NewController(opts.Repo, pub, opts.Clock),
		sync:     coordinator.New(opts.Identity.SessionID, opts.Repo, pub),
		sched:    opts.Scheduler,
		clock:    opts.Clock,
		emitter:  opts.Emitter,
		interval: opts.TickInterval,
		inbox:    make(chan []byte, opts.InboxSize),
		ticks:    make(chan time.Time, 1),
		commands: make(chan command),
		stopped:  stopped,
	}, nil
}

// Identity returns the local client's identity.
func (n *Node) Identity() Identity { return n.id }

// Emitter returns the notification emitter fed by this node.
func (n *Node) Emitter() *notify.Emitter { return n.emitter }

// Run subscribes to the transport, starts the lifecycle tick and processes
// events until ctx is done. The tick is cancelled and the subscription
// removed before Run returns.
func (n *Node) Run(ctx context.Context) error {
	n.mu.Lock()
	if n.active {
		n.mu.Unlock()
		return errors.New("node: already running")
	}
	n.active = true
	stopped := make(chan struct{})
	n.stopped = stopped
	n.mu.Unlock()

	unsubscribe := n.tr.Subscribe(n.enqueue)
	cancelTick := n.sched.Every(n.interval, func(now time.Time) {
		// a tick still pending in the loop covers this one
		select {
		case n.ticks <- now:
		default:
		}
	})
	defer func() {
		n.running.Store(false)
		cancelTick()
		unsubscribe()
		close(stopped)
		n.mu.Lock()
		n.active = false
		n.mu.Unlock()
		utils.Info("Node stopped", map[string]any{"session_id": n.id.SessionID})
	}()

	n.wasConnected = false
	n.checkConnection(ctx)
	n.running.Store(true)
	utils.Info("Node started", map[string]any{"session_id": n.id.SessionID, "user": n.id.User()})

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-n.inbox:
			n.handlePayload(ctx, payload)
		case <-n.ticks:
			n.onTick(ctx)
		case cmd := <-n.commands:
			cmd.result <- cmd.run()
		}
	}
}

// enqueue is the transport handler. It never blocks the transport.
func (n *Node) enqueue(payload []byte) {
	select {
	case n.inbox <- payload:
	default:
		utils.Warn("node: inbox full, event dropped", map[string]any{"session_id": n.id.SessionID, "bytes": len(payload)})
	}
}

func (n *Node) handlePayload(ctx context.Context, payload []byte) {
	ev, err := events.Decode(payload)
	if err != nil {
		utils.Debug("node: malformed event dropped", map[string]any{"session_id": n.id.SessionID, "error": err.Error()})
		return
	}
	n.dispatch(ctx, ev, n.clock.Now())
}

// dispatch applies one decoded event to the registry.
func (n *Node) dispatch(ctx context.Context, ev events.Event, arrival time.Time) {
	switch e := ev.(type) {
	case events.AuctionCreated:
		if n.repo.UpsertCreated(e.Auction) {
			n.emitter.Emit(notify.ForCreated(e.Auction, arrival))
		}

	case events.AuctionUpdated:
		if err := n.repo.ApplyUpdate(e.ID, e.Changes); err != nil {
			utils.Debug("node: update dropped", map[string]any{"auction_id": e.ID, "error": err.Error()})
		}

	case events.BidPlaced:
		bid, err := n.bids.HandleBidEvent(e, arrival)
		if err != nil {
			utils.Debug("node: bid not applied", map[string]any{"auction_id": e.AuctionID, "user": e.User, "price": e.Price, "error": err.Error()})
			return
		}
		if a, err := n.repo.GetAuction(e.AuctionID); err == nil {
			if note, ok := notify.ForBid(a, bid, n.id.User()); ok {
				n.emitter.Emit(note)
			}
		}

	case events.AuctionFinalized:
		changed, err := n.life.ApplyFinalization(e)
		if err != nil {
			utils.Debug("node: finalization dropped", map[string]any{"auction_id": e.AuctionID, "error": err.Error()})
			return
		}
		if changed {
			if a, err := n.repo.GetAuction(e.AuctionID); err == nil {
				n.emitter.Emit(notify.ForFinalized(a, arrival))
			}
		}

	case events.SyncRequest:
		if _, err := n.sync.HandleRequest(ctx, e); err != nil {
			utils.Warn("node: sync answer failed", map[string]any{"requester_id": e.RequesterID, "error": err.Error()})
		}

	case events.SyncSnapshot:
		n.sync.HandleSnapshot(e)

	default:
		utils.Debug("node: event ignored", map[string]any{"type": string(ev.EventType())})
	}
}

func (n *Node) onTick(ctx context.Context) {
	n.checkConnection(ctx)
	now := n.clock.Now()
	for _, a := range n.life.Tick(ctx) {
		n.emitter.Emit(notify.ForFinalized(a, now))
	}
	n.tickN.Add(1)
}

// checkConnection requests a full sync on every false to true edge of the
// transport's connection state.
func (n *Node) checkConnection(ctx context.Context) {
	connected := n.tr.Connected()
	if connected && !n.wasConnected {
		if err := n.sync.RequestSync(ctx); err != nil {
			utils.Warn("node: sync request failed", map[string]any{"session_id": n.id.SessionID, "error": err.Error()})
			connected = false // retry on the next tick
		}
	}
	n.wasConnected = connected
}

// do runs fn on the loop and returns its error.
func (n *Node) do(ctx context.Context, fn func() error) error {
	n.mu.Lock()
	stopped := n.stopped
	n.mu.Unlock()
	if !n.running.Load() {
		return auctionerrors.ErrNodeStopped
	}

	cmd := command{run: fn, result: make(chan error, 1)}
	select {
	case n.commands <- cmd:
	case <-stopped:
		return auctionerrors.ErrNodeStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateAuction creates an auction owned by the local user. The creator
// applies it through the same path as every receiver, then broadcasts it.
func (n *Node) CreateAuction(ctx context.Context, input model.NewAuctionInput) (model.Auction, error) {
	var created model.Auction
	err := n.do(ctx, func() error {
		a, err := n.bids.NewAuction(input, n.id.User())
		if err != nil {
			n.emitter.Emit(notify.ForError("", err, n.clock.Now()))
			return err
		}
		if !n.pub.Connected() {
			return fmt.Errorf("node: create auction: %w", auctionerrors.ErrTransportUnavailable)
		}

		ev := events.AuctionCreated{Auction: a}
		n.dispatch(ctx, ev, n.clock.Now())
		if err := n.pub.Publish(ctx, ev, transport.ScopeAll); err != nil {
			// peers pick it up from the next sync snapshot
			utils.Warn("node: creation broadcast failed", map[string]any{"auction_id": a.ID, "error": err.Error()})
		}
		created = a
		return nil
	})
	return created, err
}

// PlaceBid broadcasts a bid by the local user. The bid shows up in the
// registry when its own echo is applied.
func (n *Node) PlaceBid(ctx context.Context, auctionID string, price float64) error {
	return n.do(ctx, func() error {
		err := n.bids.SubmitBid(ctx, auctionID, n.id.User(), price)
		if err != nil {
			n.emitter.Emit(notify.ForError(auctionID, err, n.clock.Now()))
		}
		return err
	})
}

// PlaceIncrementBid bids one minimum increment above the current price and
// returns the price bid.
func (n *Node) PlaceIncrementBid(ctx context.Context, auctionID string) (float64, error) {
	var price float64
	err := n.do(ctx, func() error {
		p, err := n.bids.IncrementBid(ctx, auctionID, n.id.User())
		if err != nil {
			n.emitter.Emit(notify.ForError(auctionID, err, n.clock.Now()))
			return err
		}
		price = p
		return nil
	})
	return price, err
}

// ListAuctions returns the auctions in state, or every auction when state is empty.
func (n *Node) ListAuctions(state model.AuctionState) []model.Auction {
	if state == "" {
		return n.repo.ListAuctions()
	}
	return n.repo.QueryByState(state)
}

// GetAuction returns one auction from the local registry.
func (n *Node) GetAuction(auctionID string) (model.Auction, error) {
	return n.repo.GetAuction(auctionID)
}

// Status reports the local identity and connection state.
func (n *Node) Status() Status {
	return Status{
		SessionID: n.id.SessionID,
		User:      n.id.User(),
		Connected: n.tr.Connected(),
		Running:   n.running.Load(),
		Ticks:     n.tickN.Load(),
	}
}
