package application

import (
	"context"
	"errors"
	"testing"

	"moderation-gateway/relay/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionQueue_EnqueueStampsAndValidates(t *testing.T) {
	c := newClock()
	q := &ActionQueue{Store: newMemQueue(), Now: c.Now}
	ctx := context.Background()

	got, err := q.Enqueue(ctx, "K1", domain.PendingAction{Type: domain.ActionKick, Player: "A"})
	require.NoError(t, err)
	assert.Equal(t, c.Now(), got.Timestamp)

	_, err = q.Enqueue(ctx, "K1", domain.PendingAction{Type: domain.ActionKick})
	assert.True(t, errors.Is(err, domain.ErrInvalidAction))

	_, err = q.Enqueue(ctx, "", domain.PendingAction{Type: domain.ActionKick, Player: "A"})
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestActionQueue_DrainTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	q := &ActionQueue{Store: newMemQueue(), Metrics: NewMetrics(reg)}
	ctx := context.Background()

	for _, p := range []string{"A", "B"} {
		_, err := q.Enqueue(ctx, "K1", domain.PendingAction{Type: domain.ActionWarn, Player: p})
		require.NoError(t, err)
	}

	first, err := q.Drain(ctx, "K1")
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "A", first[0].Player)

	second, err := q.Drain(ctx, "K1")
	require.NoError(t, err)
	assert.NotNil(t, second)
	assert.Empty(t, second)

	assert.Equal(t, 2.0, testutil.ToFloat64(q.Metrics.enqueued.WithLabelValues("warn")))
	assert.Equal(t, 2.0, testutil.ToFloat64(q.Metrics.drained))
}

func TestActionQueue_PushFailureSurfaces(t *testing.T) {
	store := newMemQueue()
	store.err = domain.ErrPersistence
	q := &ActionQueue{Store: store}

	_, err := q.Enqueue(context.Background(), "K1", domain.PendingAction{Type: domain.ActionKick, Player: "A"})
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
