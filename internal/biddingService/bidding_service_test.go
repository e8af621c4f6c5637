package bidding

import (
	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/events"
	model "auction-sync/internal/models"
	"auction-sync/internal/repository"
	"auction-sync/internal/transport"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func activeAuction(id string, current float64) model.Auction {
	return model.Auction{
		ID:             id,
		Title:          "Bike",
		InitialPrice:   100,
		CurrentPrice:   current,
		MinIncrement:   10,
		StartTimestamp: start,
		EndTimestamp:   start.Add(5 * time.Minute),
		State:          model.StateActive,
		Bids:           []model.Bid{},
		Creator:        "ana",
	}
}

// Tests SubmitBid
func TestBiddingService_SubmitBid(t *testing.T) {
	finalized := activeAuction("a2", 100)
	finalized.State = model.StateFinalized
	finalized.Winner = "ben"

	tests := []struct {
		name          string
		auctionID     string
		user          string
		price         float64
		mockSetup     func(repo *repository.MockAuctionStore, tr *transport.MockTransport)
		expectError   bool
		expectedError []error
	}{
		{
			name:      "valid_bid_is_broadcast_to_all",
			auctionID: "a1",
			user:      "ben",
			price:     105,
			mockSetup: func(repo *repository.MockAuctionStore, tr *transport.MockTransport) {
				repo.EXPECT().GetAuction("a1").Return(activeAuction("a1", 100), nil)
				tr.EXPECT().Connected().Return(true)
				tr.EXPECT().Broadcast(gomock.Any(), gomock.Any(), transport.ScopeAll).
					DoAndReturn(func(_ context.Context, payload []byte, _ transport.Scope) error {
						ev, err := events.Decode(payload)
						require.NoError(t, err)
						require.Equal(t, events.BidPlaced{AuctionID: "a1", User: "ben", Price: 105}, ev)
						return nil
					})
			},
		},
		{
			name:          "empty_auctionID",
			auctionID:     "",
			user:          "ben",
			price:         105,
			mockSetup:     func(*repository.MockAuctionStore, *transport.MockTransport) {},
			expectError:   true,
			expectedError: []error{auctionerrors.ErrRejectedBid, auctionerrors.ErrInvalidBid},
		},
		{
			name:          "empty_user",
			auctionID:     "a1",
			user:          "",
			price:         105,
			mockSetup:     func(*repository.MockAuctionStore, *transport.MockTransport) {},
			expectError:   true,
			expectedError: []error{auctionerrors.ErrRejectedBid, auctionerrors.ErrInvalidBid},
		},
		{
			name:          "negative_amount",
			auctionID:     "a1",
			user:          "ben",
			price:         -5,
			mockSetup:     func(*repository.MockAuctionStore, *transport.MockTransport) {},
			expectError:   true,
			expectedError: []error{auctionerrors.ErrRejectedBid, auctionerrors.ErrInvalidBid},
		},
		{
			name:      "unknown_auction",
			auctionID: "missing",
			user:      "ben",
			price:     105,
			mockSetup: func(repo *repository.MockAuctionStore, _ *transport.MockTransport) {
				repo.EXPECT().GetAuction("missing").Return(model.Auction{}, auctionerrors.ErrAuctionNotFound)
			},
			expectError:   true,
			expectedError: []error{auctionerrors.ErrRejectedBid, auctionerrors.ErrAuctionNotFound},
		},
		{
			name:      "auction_not_active",
			auctionID: "a2",
			user:      "ben",
			price:     500,
			mockSetup: func(repo *repository.MockAuctionStore, _ *transport.MockTransport) {
				repo.EXPECT().GetAuction("a2").Return(finalized, nil)
			},
			expectError:   true,
			expectedError: []error{auctionerrors.ErrRejectedBid, auctionerrors.ErrAuctionNotActive},
		},
		{
			name:      "equal_to_current_price",
			auctionID: "a1",
			user:      "ben",
			price:     100,
			mockSetup: func(repo *repository.MockAuctionStore, _ *transport.MockTransport) {
				repo.EXPECT().GetAuction("a1").Return(activeAuction("a1", 100), nil)
			},
			expectError:   true,
			expectedError: []error{auctionerrors.ErrRejectedBid, auctionerrors.ErrBidTooLow},
		},
		{
			name:      "transport_down",
			auctionID: "a1",
			user:      "ben",
			price:     105,
			mockSetup: func(repo *repository.MockAuctionStore, tr *transport.MockTransport) {
				repo.EXPECT().GetAuction("a1").Return(activeAuction("a1", 100), nil)
				tr.EXPECT().Connected().Return(false)
			},
			expectError:   true,
			expectedError: []error{auctionerrors.ErrTransportUnavailable},
		},
		{
			name:      "broadcast_fails",
			auctionID: "a1",
			user:      "ben",
			price:     105,
			mockSetup: func(repo *repository.MockAuctionStore, tr *transport.MockTransport) {
				repo.EXPECT().GetAuction("a1").Return(activeAuction("a1", 100), nil)
				tr.EXPECT().Connected().Return(true)
				tr.EXPECT().Broadcast(gomock.Any(), gomock.Any(), transport.ScopeAll).Return(errors.New("socket closed"))
			},
			expectError: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockRepo := repository.NewMockAuctionStore(ctrl)
			mockTransport := transport.NewMockTransport(ctrl)
			service := NewBiddingService(mockRepo, events.NewPublisher(mockTransport), clockwork.NewFakeClockAt(start))

			tc.mockSetup(mockRepo, mockTransport)

			err := service.SubmitBid(context.Background(), tc.auctionID, tc.user, tc.price)
			if !tc.expectError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tc.expectedError {
				require.True(t, errors.Is(err, want), "expected error: %v, got: %v", want, err)
			}
		})
	}
}

// SubmitBid only broadcasts; the local replica moves when the event comes back.
func TestBiddingService_SubmitBidDoesNotMutate(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := repository.NewMemoryRepo()
	repo.UpsertCreated(activeAuction("a1", 100))

	mockTransport := transport.NewMockTransport(ctrl)
	mockTransport.EXPECT().Connected().Return(true)
	mockTransport.EXPECT().Broadcast(gomock.Any(), gomock.Any(), transport.ScopeAll).Return(nil)

	service := NewBiddingService(repo, events.NewPublisher(mockTransport), clockwork.NewFakeClockAt(start))
	require.NoError(t, service.SubmitBid(context.Background(), "a1", "ben", 150))

	got, err := repo.GetAuction("a1")
	require.NoError(t, err)
	require.Equal(t, 100.0, got.CurrentPrice)
	require.Empty(t, got.Bids)
}

// Test IncrementBid
func TestBiddingService_IncrementBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := repository.NewMockAuctionStore(ctrl)
	mockTransport := transport.NewMockTransport(ctrl)
	service := NewBiddingService(mockRepo, events.NewPublisher(mockTransport), clockwork.NewFakeClockAt(start))

	mockRepo.EXPECT().GetAuction("a1").Return(activeAuction("a1", 130), nil).Times(2)
	mockTransport.EXPECT().Connected().Return(true)
	mockTransport.EXPECT().Broadcast(gomock.Any(), gomock.Any(), transport.ScopeAll).
		DoAndReturn(func(_ context.Context, payload []byte, _ transport.Scope) error {
			ev, err := events.Decode(payload)
			require.NoError(t, err)
			require.Equal(t, 140.0, ev.(events.BidPlaced).Price)
			return nil
		})

	price, err := service.IncrementBid(context.Background(), "a1", "ben")
	require.NoError(t, err)
	require.Equal(t, 140.0, price)

	mockRepo.EXPECT().GetAuction("missing").Return(model.Auction{}, auctionerrors.ErrAuctionNotFound)
	_, err = service.IncrementBid(context.Background(), "missing", "ben")
	require.True(t, errors.Is(err, auctionerrors.ErrRejectedBid))
}

// Test HandleBidEvent
func TestBiddingService_HandleBidEvent(t *testing.T) {
	arrival := start.Add(30 * time.Second)

	t.Run("accepted_then_lower_rejected", func(t *testing.T) {
		repo := repository.NewMemoryRepo()
		repo.UpsertCreated(activeAuction("a1", 100))
		service := NewBiddingService(repo, nil, clockwork.NewFakeClockAt(start))

		bid, err := service.HandleBidEvent(events.BidPlaced{AuctionID: "a1", User: "ben", Price: 105}, arrival)
		require.NoError(t, err)
		require.Equal(t, model.Bid{User: "ben", Price: 105, Timestamp: arrival}, bid)

		_, err = service.HandleBidEvent(events.BidPlaced{AuctionID: "a1", User: "cid", Price: 100}, arrival)
		require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow), "got %v", err)

		got, err := repo.GetAuction("a1")
		require.NoError(t, err)
		require.Equal(t, 105.0, got.CurrentPrice)
		require.Len(t, got.Bids, 1)
		require.Equal(t, "ben", got.LastBid.User)
	})

	t.Run("strictly_increasing_sequence", func(t *testing.T) {
		repo := repository.NewMemoryRepo()
		repo.UpsertCreated(activeAuction("a1", 100))
		service := NewBiddingService(repo, nil, clockwork.NewFakeClockAt(start))

		prices := []float64{101, 110.5, 200, 200.01, 999}
		for i, p := range prices {
			_, err := service.HandleBidEvent(events.BidPlaced{AuctionID: "a1", User: uuid.NewString(), Price: p}, arrival.Add(time.Duration(i)*time.Second))
			require.NoError(t, err)
		}

		got, err := repo.GetAuction("a1")
		require.NoError(t, err)
		require.Equal(t, prices[len(prices)-1], got.CurrentPrice)
		require.Len(t, got.Bids, len(prices))
	})

	t.Run("unknown_auction_is_dropped", func(t *testing.T) {
		service := NewBiddingService(repository.NewMemoryRepo(), nil, clockwork.NewFakeClockAt(start))
		_, err := service.HandleBidEvent(events.BidPlaced{AuctionID: "ghost", User: "ben", Price: 5}, arrival)
		require.True(t, errors.Is(err, auctionerrors.ErrUnknownAuction))
	})

	t.Run("finalized_auction_rejects", func(t *testing.T) {
		repo := repository.NewMemoryRepo()
		repo.UpsertCreated(activeAuction("a1", 100))
		_, err := repo.Finalize("a1", "")
		require.NoError(t, err)
		service := NewBiddingService(repo, nil, clockwork.NewFakeClockAt(start))

		_, err = service.HandleBidEvent(events.BidPlaced{AuctionID: "a1", User: "ben", Price: 500}, arrival)
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotActive))

		got, err := repo.GetAuction("a1")
		require.NoError(t, err)
		require.Empty(t, got.Bids)
		require.Equal(t, 100.0, got.CurrentPrice)
	})

	t.Run("record_failure_is_wrapped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockRepo := repository.NewMockAuctionStore(ctrl)
		mockRepo.EXPECT().GetAuction("a1").Return(activeAuction("a1", 100), nil)
		mockRepo.EXPECT().RecordBid("a1", gomock.Any()).Return(errors.New("write failed"))

		service := NewBiddingService(mockRepo, nil, clockwork.NewFakeClockAt(start))
		_, err := service.HandleBidEvent(events.BidPlaced{AuctionID: "a1", User: "ben", Price: 150}, arrival)
		require.ErrorContains(t, err, "write failed")
	})
}

// Test NewAuction
func TestBiddingService_NewAuction(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	service := NewBiddingService(repository.NewMemoryRepo(), nil, clock)

	tests := []struct {
		name          string
		input         model.NewAuctionInput
		expectedError error
		wantIncrement float64
		wantDuration  time.Duration
	}{
		{
			name:          "explicit_values",
			input:         model.NewAuctionInput{Title: "Lamp", InitialPrice: 100, MinIncrement: 10, DurationMinutes: 2},
			wantIncrement: 10,
			wantDuration:  2 * time.Minute,
		},
		{
			name:          "defaults_for_non_positive_values",
			input:         model.NewAuctionInput{Title: "Lamp", InitialPrice: 100, MinIncrement: -3, DurationMinutes: 0},
			wantIncrement: DefaultMinIncrement,
			wantDuration:  DefaultDuration,
		},
		{
			name:          "missing_title",
			input:         model.NewAuctionInput{Title: "   ", InitialPrice: 100},
			expectedError: auctionerrors.ErrMissingTitle,
		},
		{
			name:          "missing_initial_price",
			input:         model.NewAuctionInput{Title: "Lamp"},
			expectedError: auctionerrors.ErrMissingInitialPrice,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			a, err := service.NewAuction(tc.input, "ana")
			if tc.expectedError != nil {
				require.True(t, errors.Is(err, tc.expectedError), "got %v", err)
				require.True(t, errors.Is(err, auctionerrors.ErrValidation))
				return
			}
			require.NoError(t, err)

			_, parseErr := uuid.Parse(a.ID)
			require.NoError(t, parseErr, "auction id should be a valid UUID")
			require.Equal(t, tc.wantIncrement, a.MinIncrement)
			require.Equal(t, tc.wantDuration, a.Duration())
			require.Equal(t, start, a.StartTimestamp)
			require.Equal(t, a.InitialPrice, a.CurrentPrice)
			require.Equal(t, model.StateActive, a.State)
			require.Equal(t, "ana", a.Creator)
			require.Empty(t, a.Winner)
			require.Nil(t, a.LastBid)
		})
	}
}
