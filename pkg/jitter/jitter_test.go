package jitter

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_NextStaysInRange(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second).WithRand(rand.New(rand.NewSource(1)))

	cases := []struct {
		attempt int
		base    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}

	for _, c := range cases {
		got := b.Next(c.attempt)
		assert.GreaterOrEqual(t, got, c.base, "attempt %d", c.attempt)
		assert.LessOrEqual(t, got, c.base+time.Duration(float64(c.base)*DefaultJitter), "attempt %d", c.attempt)
	}
}

func TestBackoff_DeterministicWithSeed(t *testing.T) {
	a := NewBackoff(time.Second, 30*time.Second).WithRand(rand.New(rand.NewSource(7)))
	b := NewBackoff(time.Second, 30*time.Second).WithRand(rand.New(rand.NewSource(7)))

	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Next(i), b.Next(i))
	}
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
