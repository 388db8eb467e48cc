package parallel

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFor tests that every index runs exactly once.
func TestFor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = 4

	n := 1000
	hits := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	}, cfg)

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

// TestFor_Sequential tests the disabled configuration.
func TestFor_Sequential(t *testing.T) {
	var order []int
	For(10, func(i int) {
		order = append(order, i)
	}, Sequential())

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

// TestFor_SmallChunk tests that small work units fall back to sequential.
func TestFor_SmallChunk(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}

	var counter int64
	n := cfg.MinChunkSize - 1
	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

// TestFor_Zero tests that an empty range is a no-op.
func TestFor_Zero(t *testing.T) {
	called := false
	For(0, func(_ int) { called = true }, DefaultConfig())
	assert.False(t, called)
}

// TestMap tests that results come back in index order.
func TestMap(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}

	out, err := Map(50, func(i int) (int, error) {
		return i * i, nil
	}, cfg)
	require.NoError(t, err)
	require.Len(t, out, 50)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

// TestMap_LowestError tests that the reported error is the lowest-index one.
func TestMap_LowestError(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	errBoom := errors.New("boom")

	var ran int64
	out, err := Map(40, func(i int) (string, error) {
		atomic.AddInt64(&ran, 1)
		if i%7 == 3 {
			return "", fmt.Errorf("item %d: %w", i, errBoom)
		}
		return "ok", nil
	}, cfg)

	require.ErrorIs(t, err, errBoom)
	assert.Nil(t, out)
	assert.EqualError(t, err, "item 3: boom")
	assert.Equal(t, int64(40), ran, "every item runs even after a failure")
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, Sequential())
		}
	})
}
