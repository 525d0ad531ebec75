package position_test

import (
	"testing"

	"opsboard/server/pkg/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTail(t *testing.T) {
	assert.Equal(t, float64(1), position.Tail(nil))
	assert.Equal(t, float64(4), position.Tail([]float64{1, 2, 3}))
}

func TestHead(t *testing.T) {
	assert.Equal(t, float64(1), position.Head(nil))
	assert.Equal(t, float64(0.5), position.Head([]float64{1, 2}))
}

func TestBetween(t *testing.T) {
	assert.Equal(t, float64(1.5), position.Between(1, 2))
}

func TestForIndex(t *testing.T) {
	sorted := []float64{1, 2, 3}

	got, err := position.ForIndex(sorted, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(4), got)

	got, err = position.ForIndex(sorted, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(0.5), got)

	got, err = position.ForIndex(sorted, 1)
	require.NoError(t, err)
	assert.Equal(t, float64(1.5), got)

	_, err = position.ForIndex(sorted, 4)
	assert.ErrorIs(t, err, position.ErrIndexOutOfRange)

	_, err = position.ForIndex(sorted, -1)
	assert.ErrorIs(t, err, position.ErrIndexOutOfRange)
}

// Sequential appends into an empty area must produce strictly increasing keys.
func TestSequentialAppendsIncrease(t *testing.T) {
	var keys []float64
	for i := 0; i < 100; i++ {
		next := position.Tail(keys)
		if len(keys) > 0 {
			require.Greater(t, next, keys[len(keys)-1])
		}
		keys = append(keys, next)
	}
}

func TestNeedsRebalance(t *testing.T) {
	assert.False(t, position.NeedsRebalance([]float64{1, 2, 3}))

	// Midpoint insertion between the same neighbors eventually degrades.
	keys := []float64{1, 2}
	for i := 0; i < 64; i++ {
		mid := position.Between(keys[0], keys[1])
		keys[1] = mid
	}
	assert.True(t, position.NeedsRebalance(keys))
}

func TestRenumber(t *testing.T) {
	got, err := position.Renumber([]float64{0.25, 0.5, 7})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	_, err = position.Renumber([]float64{2, 1})
	assert.ErrorIs(t, err, position.ErrUnsorted)
}
