package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var seen []Event
	d.Subscribe(EventRequestSent, func(_ context.Context, e Event) error {
		seen = append(seen, e)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventRequestSent, TeamID: "team-1"})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "team-1", seen[0].TeamID)

	// other event types are not delivered
	err = d.Publish(context.Background(), Event{Type: EventInviteSent})
	require.NoError(t, err)
	assert.Len(t, seen, 1)
}

func TestDispatcherHandlerFailureDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var delivered int
	d.Subscribe(EventRequestSent, func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	d.Subscribe(EventRequestSent, func(_ context.Context, _ Event) error {
		delivered++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventRequestSent})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}
