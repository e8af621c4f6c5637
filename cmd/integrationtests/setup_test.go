package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	model "auction-sync/internal/models"
	"auction-sync/internal/node"
	"auction-sync/internal/server"
	"auction-sync/internal/transport/memory"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const wait = 3 * time.Second

// Cluster is a set of clients sharing one in-memory hub and one fake clock.
type Cluster struct {
	Hub   *memory.Hub
	Clock *clockwork.FakeClock
}

// Client is one running node and its transport.
type Client struct {
	*node.Node
	Transport *memory.Transport
}

// NewCluster creates an empty cluster.
func NewCluster() *Cluster {
	return &Cluster{Hub: memory.NewHub(), Clock: clockwork.NewFakeClock()}
}

// Start joins a client to the hub and runs it until the test ends.
func (c *Cluster) Start(t *testing.T, session, name string) *Client {
	t.Helper()

	tr := c.Hub.Join(session)
	n, err := node.New(node.Options{
		Identity:  node.Identity{SessionID: session, DisplayName: name},
		Transport: tr,
		Clock:     c.Clock,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	require.Eventually(t, func() bool { return n.Status().Running }, wait, time.Millisecond)
	return &Client{Node: n, Transport: tr}
}

// TickUntil advances the shared clock one second at a time until cond holds.
func (c *Cluster) TickUntil(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		c.Clock.Advance(time.Second)
		return cond()
	}, wait, 5*time.Millisecond)
}

// TickOnce advances the clock until client has completed at least one more tick.
func (c *Cluster) TickOnce(t *testing.T, client *Client) {
	t.Helper()
	before := client.Status().Ticks
	c.TickUntil(t, func() bool { return client.Status().Ticks > before })
}

// PriceIs reports whether client holds auctionID at price.
func PriceIs(client *Client, auctionID string, price float64) func() bool {
	return func() bool {
		a, err := client.GetAuction(auctionID)
		return err == nil && a.CurrentPrice == price
	}
}

// HasAuction reports whether client knows auctionID.
func HasAuction(client *Client, auctionID string) func() bool {
	return func() bool {
		_, err := client.GetAuction(auctionID)
		return err == nil
	}
}

// BidPrices returns the accepted bid prices client holds for auctionID, in application order.
func BidPrices(t *testing.T, client *Client, auctionID string) []float64 {
	t.Helper()
	a, err := client.GetAuction(auctionID)
	require.NoError(t, err)
	out := make([]float64, 0, len(a.Bids))
	for _, b := range a.Bids {
		out = append(out, b.Price)
	}
	return out
}

// CreateAuction creates an auction on client and waits until every peer has it.
func CreateAuction(t *testing.T, client *Client, input model.NewAuctionInput, peers ...*Client) model.Auction {
	t.Helper()
	a, err := client.CreateAuction(context.Background(), input)
	require.NoError(t, err)
	for _, p := range peers {
		require.Eventually(t, HasAuction(p, a.ID), wait, time.Millisecond)
	}
	return a
}

// SetupTestRouter builds the HTTP UI of client for integration testing.
func SetupTestRouter(client *Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return server.SetupRouter(client.Node, client.Emitter())
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}
