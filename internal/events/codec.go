package events

import (
	"fmt"
	"sync"

	"auction-sync/internal/auctionerrors"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// envelope is the wire shape of every event.
type envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

var (
	once     sync.Once
	validate *validator.Validate
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Encode serializes e into its wire envelope.
func Encode(e Event) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("codec: encode nil event")
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s: %w", e.EventType(), err)
	}
	out, err := json.Marshal(envelope{Type: e.EventType(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("codec: encode %s envelope: %w", e.EventType(), err)
	}
	return out, nil
}

// Decode parses and validates a wire payload. Every failure wraps
// auctionerrors.ErrMalformedEvent; unrecognized types additionally wrap
// auctionerrors.ErrUnknownEvent.
func Decode(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("codec: %w - %v", auctionerrors.ErrMalformedEvent, err)
	}

	switch env.Type {
	case TypeAuctionCreated:
		return decodeAs[AuctionCreated](env)
	case TypeAuctionUpdated:
		return decodeAs[AuctionUpdated](env)
	case TypeBidPlaced:
		return decodeAs[BidPlaced](env)
	case TypeAuctionFinalized:
		return decodeAs[AuctionFinalized](env)
	case TypeSyncRequest:
		return decodeAs[SyncRequest](env)
	case TypeSyncSnapshot:
		return decodeAs[SyncSnapshot](env)
	default:
		return nil, fmt.Errorf("codec: %w: %w - %q", auctionerrors.ErrMalformedEvent, auctionerrors.ErrUnknownEvent, env.Type)
	}
}

func decodeAs[T Event](env envelope) (Event, error) {
	var v T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, fmt.Errorf("codec: %w - %s without data", auctionerrors.ErrMalformedEvent, env.Type)
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, fmt.Errorf("codec: %w - %s: %v", auctionerrors.ErrMalformedEvent, env.Type, err)
	}
	if err := getValidator().Struct(v); err != nil {
		return nil, fmt.Errorf("codec: %w - %s: %v", auctionerrors.ErrMalformedEvent, env.Type, err)
	}
	return v, nil
}
