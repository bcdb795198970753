package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedPriceFeed(t *testing.T) {
	feed := FixedPriceFeed{PriceMicros: 2_500_000_000}

	quote, err := feed.SpotPrice(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2_500_000_000), quote.PriceMicros)
	require.False(t, quote.ObservedAt.IsZero())
}

func TestSimulatedPriceFeedStaysNearBase(t *testing.T) {
	const base = int64(2_500_000_000)
	feed := NewSimulatedPriceFeed(base)
	ctx := context.Background()

	prev := base
	for i := 0; i < 100; i++ {
		quote, err := feed.SpotPrice(ctx)
		require.NoError(t, err)
		require.Greater(t, quote.PriceMicros, int64(0))

		// Each observation moves at most 0.5% from the previous one.
		maxStep := prev / 200
		diff := quote.PriceMicros - prev
		if diff < 0 {
			diff = -diff
		}
		require.LessOrEqual(t, diff, maxStep+1)
		prev = quote.PriceMicros
	}
}
