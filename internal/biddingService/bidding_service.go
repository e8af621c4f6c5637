package bidding

import (
	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/events"
	model "auction-sync/internal/models"
	"auction-sync/internal/repository"
	"auction-sync/internal/transport"
	"auction-sync/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultMinIncrement = 1.0
	DefaultDuration     = 5 * time.Minute
)

// BiddingService holds the bid acceptance rules of one client. It never
// mutates the registry on submission: accepted bids come back as events.
type BiddingService struct {
	repo  repository.AuctionStore
	pub   events.Publisher
	clock clockwork.Clock
}

// NewBiddingService creates a new BiddingService instance
func NewBiddingService(repo repository.AuctionStore, pub events.Publisher, clock clockwork.Clock) *BiddingService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &BiddingService{
		repo:  repo,
		pub:   pub,
		clock: clock,
	}
}

// NewAuction validates input and builds the record of an auction created by
// creator. Non-positive increments and durations fall back to the defaults.
func (s *BiddingService) NewAuction(input model.NewAuctionInput, creator string) (model.Auction, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return model.Auction{}, fmt.Errorf("service: %w: %w", auctionerrors.ErrValidation, auctionerrors.ErrMissingTitle)
	}
	if input.InitialPrice <= 0 {
		return model.Auction{}, fmt.Errorf("service: %w: %w", auctionerrors.ErrValidation, auctionerrors.ErrMissingInitialPrice)
	}
	if creator == "" {
		return model.Auction{}, fmt.Errorf("service: %w - missing creator", auctionerrors.ErrValidation)
	}

	increment := input.MinIncrement
	if increment <= 0 {
		increment = DefaultMinIncrement
	}
	duration := time.Duration(input.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = DefaultDuration
	}

	start := s.clock.Now().UTC()
	return model.Auction{
		ID:             utils.GenerateID(),
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		InitialPrice:   input.InitialPrice,
		CurrentPrice:   input.InitialPrice,
		MinIncrement:   increment,
		StartTimestamp: start,
		EndTimestamp:   start.Add(duration),
		State:          model.StateActive,
		Bids:           []model.Bid{},
		Creator:        creator,
		Remaining:      duration,
	}, nil
}

// SubmitBid checks a local bid against the local replica and broadcasts it to
// every client, this one included. The echo applies it.
func (s *BiddingService) SubmitBid(ctx context.Context, auctionID, user string, price float64) error {
	if err := s.validateBid(auctionID, user, price); err != nil {
		return err
	}

	err := s.pub.Publish(ctx, events.BidPlaced{AuctionID: auctionID, User: user, Price: price}, transport.ScopeAll)
	if err != nil {
		return fmt.Errorf("service: failed to broadcast bid on auction %s by %s: %w", auctionID, user, err)
	}
	return nil
}

// IncrementBid bids exactly one increment above the current price and returns that price.
func (s *BiddingService) IncrementBid(ctx context.Context, auctionID, user string) (float64, error) {
	auction, err := s.repo.GetAuction(auctionID)
	if err != nil {
		return 0, fmt.Errorf("service: %w: %w", auctionerrors.ErrRejectedBid, err)
	}
	price := auction.CurrentPrice + auction.MinIncrement
	if err := s.SubmitBid(ctx, auctionID, user, price); err != nil {
		return 0, err
	}
	return price, nil
}

// validateBid checks input validity and business rules for bidding
func (s *BiddingService) validateBid(auctionID, user string, price float64) error {
	if auctionID == "" || user == "" {
		return fmt.Errorf("service: %w: %w - missing auctionID or user", auctionerrors.ErrRejectedBid, auctionerrors.ErrInvalidBid)
	}
	if price <= 0 {
		return fmt.Errorf("service: %w: %w - non-positive bid amount", auctionerrors.ErrRejectedBid, auctionerrors.ErrInvalidBid)
	}

	auction, err := s.repo.GetAuction(auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
			return fmt.Errorf("service: %w: %w", auctionerrors.ErrRejectedBid, err)
		}
		return fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}
	return checkAcceptable(auction, price)
}

// HandleBidEvent applies a delivered bid iff it beats the price this client
// holds at arrival. Rejected events leave the registry untouched.
func (s *BiddingService) HandleBidEvent(ev events.BidPlaced, arrival time.Time) (model.Bid, error) {
	auction, err := s.repo.GetAuction(ev.AuctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
			return model.Bid{}, fmt.Errorf("service: bid on %s: %w", ev.AuctionID, auctionerrors.ErrUnknownAuction)
		}
		return model.Bid{}, err
	}
	if err := checkAcceptable(auction, ev.Price); err != nil {
		return model.Bid{}, err
	}

	bid := model.Bid{User: ev.User, Price: ev.Price, Timestamp: arrival.UTC()}
	if err := s.repo.RecordBid(ev.AuctionID, bid); err != nil {
		return model.Bid{}, fmt.Errorf("service: failed to record bid on auction %s by %s: %w", ev.AuctionID, ev.User, err)
	}
	return bid, nil
}

func checkAcceptable(auction model.Auction, price float64) error {
	if auction.State != model.StateActive {
		return fmt.Errorf("service: %w: %w - auction %s is %s", auctionerrors.ErrRejectedBid, auctionerrors.ErrAuctionNotActive, auction.ID, auction.State)
	}
	if price <= auction.CurrentPrice {
		return fmt.Errorf("service: %w: %w - current price is %.2f", auctionerrors.ErrRejectedBid, auctionerrors.ErrBidTooLow, auction.CurrentPrice)
	}
	return nil
}

// Now returns the service clock's current time.
func (s *BiddingService) Now() time.Time {
	return s.clock.Now()
}
