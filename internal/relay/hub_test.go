package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) Message {
	t.Helper()
	select {
	case msg, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHubRoutesByDirection(t *testing.T) {
	hub := NewHub(false, nil)
	out, err := hub.Outgoing(4)
	require.NoError(t, err)
	in, err := hub.Incoming(4)
	require.NoError(t, err)

	hub.Send(NewMessage(TypeBet, nil))
	hub.Send(NewMessage(TypeManualSelection, nil))
	hub.Deliver(NewMessage(TypeStartBet, nil))

	assert.Equal(t, TypeBet, receive(t, out).Type)
	assert.Equal(t, TypeManualSelection, receive(t, out).Type)
	assert.Equal(t, TypeStartBet, receive(t, in).Type)
	assert.Len(t, out.C(), 0)
	assert.Len(t, in.C(), 0)
}

func TestHubDropsControlTelemetryWhenFull(t *testing.T) {
	hub := NewHub(false, nil)
	sub, err := hub.Outgoing(2)
	require.NoError(t, err)

	hub.Send(NewMessage(TypeBet, nil))
	hub.Send(NewMessage(TypeManualSelection, nil))
	hub.Send(NewMessage(TypeControlMines, nil))

	assert.Equal(t, TypeBet, receive(t, sub).Type)
	assert.Equal(t, TypeManualSelection, receive(t, sub).Type)
	out, _ := hub.Subscribers()
	assert.Equal(t, 1, out, "subscription survives dropped telemetry")

	hub.Send(NewMessage(TypeCashoutRequest, nil))
	assert.Equal(t, TypeCashoutRequest, receive(t, sub).Type)
}

func TestHubClosesSubscriptionOnGameOverflow(t *testing.T) {
	hub := NewHub(false, nil)
	sub, err := hub.Incoming(2)
	require.NoError(t, err)

	hub.Deliver(NewMessage(TypeStartBet, nil))
	hub.Deliver(NewMessage(TypeBetResult, nil))
	hub.Deliver(NewMessage(TypeFinalizeBet, nil))

	assert.Equal(t, TypeStartBet, receive(t, sub).Type, "queued messages stay readable")
	assert.Equal(t, TypeBetResult, receive(t, sub).Type)
	_, ok := <-sub.C()
	assert.False(t, ok, "overflow ends the feed")
	<-sub.Done()

	_, in := hub.Subscribers()
	assert.Equal(t, 0, in)
	sub.Close()

	hub.Deliver(NewMessage(TypeStartBet, nil))
}

func TestSubscriptionClose(t *testing.T) {
	hub := NewHub(false, nil)
	sub, err := hub.Incoming(1)
	require.NoError(t, err)

	sub.Close()
	sub.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)
	<-sub.Done()

	assert.NotPanics(t, func() { hub.Deliver(NewMessage(TypeStartBet, nil)) })
}

func TestHubClose(t *testing.T) {
	hub := NewHub(false, nil)
	sub, err := hub.Outgoing(1)
	require.NoError(t, err)

	hub.Close()
	hub.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)

	_, err = hub.Incoming(1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NotPanics(t, func() { hub.Send(NewMessage(TypeBet, nil)) })
	sub.Close()
}

func TestHubDemoModeWatchers(t *testing.T) {
	hub := NewHub(true, nil)
	var seen []bool
	hub.OnDemoModeChange(func(demo bool) { seen = append(seen, demo) })

	hub.SetDemoMode(true)
	hub.SetDemoMode(false)
	hub.SetDemoMode(false)
	hub.SetDemoMode(true)

	assert.Equal(t, []bool{false, true}, seen)
	assert.True(t, hub.DemoMode())
}
