package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"auction-sync/internal/auctionerrors"
	model "auction-sync/internal/models"
	"auction-sync/internal/node"
	"auction-sync/internal/notify"
	"auction-sync/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

func sampleAuction() model.Auction {
	return model.Auction{
		ID:             "a1",
		Title:          "Lamp",
		InitialPrice:   100,
		CurrentPrice:   100,
		MinIncrement:   10,
		StartTimestamp: start,
		EndTimestamp:   start.Add(5 * time.Minute),
		State:          model.StateActive,
		Bids:           []model.Bid{},
		Creator:        "ana",
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(h *AuctionHandler) *gin.Engine {
	router := gin.New()
	router.GET("/auctions", h.ListAuctionsHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.POST("/auctions", h.CreateAuctionHandler)
	router.POST("/auctions/:auction_id/bids", h.PlaceBidHandler)
	router.POST("/auctions/:auction_id/bids/increment", h.PlaceIncrementBidHandler)
	router.GET("/status", h.StatusHandler)
	router.GET("/events", h.EventsHandler)
	return router
}

func do(t *testing.T, router http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: helpers.CreateAuctionRequest{Title: "Lamp", InitialPrice: 100, MinIncrement: 10, DurationMinutes: 5},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().
					CreateAuction(gomock.Any(), model.NewAuctionInput{Title: "Lamp", InitialPrice: 100, MinIncrement: 10, DurationMinutes: 5}).
					Return(sampleAuction(), nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func(*MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "missing_title",
			requestBody: helpers.CreateAuctionRequest{InitialPrice: 100},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).
					Return(model.Auction{}, fmt.Errorf("service: %w: %w", auctionerrors.ErrValidation, auctionerrors.ErrMissingTitle))
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid auction details",
		},
		{
			name:        "transport_down",
			requestBody: helpers.CreateAuctionRequest{Title: "Lamp", InitialPrice: 100},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).Return(model.Auction{}, auctionerrors.ErrTransportUnavailable)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "transport unavailable",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockAuctionServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newRouter(NewAuctionHandler(mockService, notify.NewEmitter()))

			status, resp := do(t, router, http.MethodPost, "/auctions", tc.requestBody)
			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if status == http.StatusCreated {
				data := resp["data"].(map[string]any)
				require.Equal(t, "a1", data["id"])
				require.Equal(t, 100.0, data["current_price"])
				require.Equal(t, "active", data["state"])
			}
		})
	}
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "success",
			requestBody: helpers.PlaceBidRequest{Price: 105},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", 105.0).Return(nil)
				m.EXPECT().Status().Return(node.Status{SessionID: "user_1", User: "ben", Connected: true})
			},
			expectedStatus: http.StatusAccepted,
			expectedMsg:    "bid broadcast successfully",
		},
		{
			name:           "zero_price",
			requestBody:    helpers.PlaceBidRequest{Price: 0},
			mockSetup:      func(*MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "negative_price",
			requestBody:    helpers.PlaceBidRequest{Price: -10},
			mockSetup:      func(*MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "bid_too_low",
			requestBody: helpers.PlaceBidRequest{Price: 100},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", 100.0).
					Return(fmt.Errorf("service: %w: %w", auctionerrors.ErrRejectedBid, auctionerrors.ErrBidTooLow))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "bid amount too low",
		},
		{
			name:        "auction_finalized",
			requestBody: helpers.PlaceBidRequest{Price: 500},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", 500.0).
					Return(fmt.Errorf("service: %w: %w", auctionerrors.ErrRejectedBid, auctionerrors.ErrAuctionNotActive))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction is not active",
		},
		{
			name:        "node_stopped",
			requestBody: helpers.PlaceBidRequest{Price: 500},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", 500.0).Return(auctionerrors.ErrNodeStopped)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "client is not running",
		},
		{
			name:        "generic_error",
			requestBody: helpers.PlaceBidRequest{Price: 500},
			mockSetup: func(m *MockAuctionServiceInterface) {
				m.EXPECT().PlaceBid(gomock.Any(), "a1", 500.0).Return(errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			mockService := NewMockAuctionServiceInterface(ctrl)
			tc.mockSetup(mockService)
			router := newRouter(NewAuctionHandler(mockService, notify.NewEmitter()))

			status, resp := do(t, router, http.MethodPost, "/auctions/a1/bids", tc.requestBody)
			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if status == http.StatusAccepted {
				data := resp["data"].(map[string]any)
				require.Equal(t, "ben", data["user"])
				require.Equal(t, 105.0, data["price"])
			}
		})
	}
}

// Test PlaceIncrementBidHandler
func TestPlaceIncrementBidHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := NewMockAuctionServiceInterface(ctrl)
	router := newRouter(NewAuctionHandler(mockService, notify.NewEmitter()))

	mockService.EXPECT().PlaceIncrementBid(gomock.Any(), "a1").Return(110.0, nil)
	mockService.EXPECT().Status().Return(node.Status{User: "ben"})
	status, resp := do(t, router, http.MethodPost, "/auctions/a1/bids/increment", nil)
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, 110.0, resp["data"].(map[string]any)["price"])

	mockService.EXPECT().PlaceIncrementBid(gomock.Any(), "ghost").
		Return(0.0, fmt.Errorf("service: %w: %w", auctionerrors.ErrRejectedBid, auctionerrors.ErrAuctionNotFound))
	status, _ = do(t, router, http.MethodPost, "/auctions/ghost/bids/increment", nil)
	require.Equal(t, http.StatusNotFound, status)
}

// Test ListAuctionsHandler and GetAuctionHandler
func TestQueryHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := NewMockAuctionServiceInterface(ctrl)
	router := newRouter(NewAuctionHandler(mockService, notify.NewEmitter()))

	mockService.EXPECT().ListAuctions(model.StateFinalized).Return([]model.Auction{})
	status, resp := do(t, router, http.MethodGet, "/auctions?state=finalized", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, []any{}, resp["data"])

	mockService.EXPECT().ListAuctions(model.AuctionState("")).Return([]model.Auction{sampleAuction()})
	status, resp = do(t, router, http.MethodGet, "/auctions", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp["data"], 1)

	status, resp = do(t, router, http.MethodGet, "/auctions?state=paused", nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid state filter", resp["message"])

	mockService.EXPECT().GetAuction("a1").Return(sampleAuction(), nil)
	status, resp = do(t, router, http.MethodGet, "/auctions/a1", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Lamp", resp["data"].(map[string]any)["title"])

	mockService.EXPECT().GetAuction("ghost").Return(model.Auction{}, auctionerrors.ErrAuctionNotFound)
	status, resp = do(t, router, http.MethodGet, "/auctions/ghost", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "auction not found", resp["message"])

	mockService.EXPECT().Status().Return(node.Status{SessionID: "user_1", User: "ana", Connected: false, Running: true})
	status, resp = do(t, router, http.MethodGet, "/status", nil)
	require.Equal(t, http.StatusOK, status)
	data := resp["data"].(map[string]any)
	require.Equal(t, false, data["connected"])
	require.Equal(t, "ana", data["user"])
}

// Test EventsHandler
func TestEventsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := NewMockAuctionServiceInterface(ctrl)
	mockService.EXPECT().Status().Return(node.Status{SessionID: "user_1", User: "ana"}).AnyTimes()

	emitter := notify.NewEmitter()
	srv := httptest.NewServer(newRouter(NewAuctionHandler(mockService, emitter)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	// The status event is written once the handler has subscribed
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event:status\n", line)

	emitter.Emit(notify.Notification{Kind: notify.KindBidPlaced, AuctionID: "a1", Title: "New bid", Message: "ben bid 120.00"})

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event:bid_placed") {
			break
		}
	}
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, line, `"auctionId":"a1"`)
}
