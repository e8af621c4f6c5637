package natsbus

import (
	"context"
	"errors"
	"testing"

	"auction-sync/internal/auctionerrors"
	"auction-sync/internal/transport"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

func TestHandleMsg_Filtering(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		scope   transport.Scope
		wantHit bool
	}{
		{name: "all_from_peer", origin: "user_2", scope: transport.ScopeAll, wantHit: true},
		{name: "all_echo", origin: "user_1", scope: transport.ScopeAll, wantHit: true},
		{name: "others_echo", origin: "user_1", scope: transport.ScopeOthers, wantHit: false},
		{name: "others_from_peer", origin: "user_2", scope: transport.ScopeOthers, wantHit: true},
		{name: "self_from_peer", origin: "user_2", scope: transport.ScopeSelf, wantHit: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tr := &Transport{subject: "auction.events", id: "user_1"}
			var got [][]byte
			tr.Subscribe(func(p []byte) { got = append(got, p) })

			tr.handleMsg(newMsg("auction.events", tc.origin, []byte(`{"type":"x"}`), tc.scope))
			if tc.wantHit {
				require.Equal(t, [][]byte{[]byte(`{"type":"x"}`)}, got)
			} else {
				require.Empty(t, got)
			}
		})
	}
}

func TestHandleMsg_DropsMessagesWithoutScope(t *testing.T) {
	tr := &Transport{subject: "auction.events", id: "user_1"}
	called := false
	tr.Subscribe(func([]byte) { called = true })

	msg := nats.NewMsg("auction.events")
	msg.Data = []byte(`{}`)
	tr.handleMsg(msg)
	require.False(t, called)
}

func TestNewMsg_Headers(t *testing.T) {
	msg := newMsg("auction.events", "user_1", []byte("p"), transport.ScopeOthers)
	require.Equal(t, "user_1", msg.Header.Get(HeaderOrigin))
	require.Equal(t, "others", msg.Header.Get(HeaderScope))
	require.Equal(t, []byte("p"), msg.Data)
}

func TestBroadcast_Disconnected(t *testing.T) {
	tr := &Transport{subject: "auction.events", id: "user_1"}
	require.False(t, tr.Connected())

	err := tr.Broadcast(context.Background(), []byte("p"), transport.ScopeAll)
	require.True(t, errors.Is(err, auctionerrors.ErrTransportUnavailable))
}

func TestDial_RequiresClientID(t *testing.T) {
	_, err := Dial(DefaultConfig())
	require.Error(t, err)
}
