// Package jitter предоставляет экспоненциальные задержки со случайной добавкой,
// чтобы повторные попытки разных задач не совпадали по времени.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Backoff описывает политику повторов: base удваивается на каждой попытке, но не превышает max.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
	rng    *rand.Rand
}

func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{
		Base:   base,
		Max:    max,
		Factor: DefaultJitter,
	}
}

// WithRand фиксирует генератор случайных чисел (для тестов).
func (b *Backoff) WithRand(rng *rand.Rand) *Backoff {
	b.rng = rng
	return b
}

// Next возвращает задержку перед попыткой attempt (нумерация с нуля).
// Результат находится в диапазоне [d, d*(1+Factor)], где d = min(Base*2^attempt, Max).
func (b *Backoff) Next(attempt int) time.Duration {
	if b.rng != nil {
		return DurationWithSeed(exponent(b.Base, b.Max, attempt), b.Factor, b.rng)
	}

	return ExponentialBackoff(b.Base, b.Max, attempt, b.Factor)
}

// Wait ждёт задержку для попытки attempt либо отмену контекста.
func (b *Backoff) Wait(ctx context.Context, attempt int) error {
	return Sleep(ctx, b.Next(attempt))
}

// Duration возвращает продолжительность с применённым джиттером.
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	jitter := globalRand.Float64() * jitterFactor * float64(d)
	randMutex.Unlock()
	return d + time.Duration(jitter)
}

// DurationWithSeed возвращает продолжительность с джиттером, используя заданный генератор случайных чисел.
func DurationWithSeed(d time.Duration, jitterFactor float64, rng *rand.Rand) time.Duration {
	return d + time.Duration(rng.Float64()*jitterFactor*float64(d))
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
// attempt — номер текущей попытки повтора (нумерация с нуля).
func ExponentialBackoff(base, max time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(exponent(base, max, attempt), jitterFactor)
}

func exponent(base, max time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff > max {
			backoff = max
			break
		}
	}

	return backoff
}

// Sleep блокируется на d или до отмены ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
