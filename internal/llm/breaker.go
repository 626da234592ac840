package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"triage-backend/internal/shared/metrics"
	"triage-backend/internal/shared/telemetry"
)

// BreakerConfig tunes the per-operation circuit breakers.
type BreakerConfig struct {
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

// DefaultBreakerConfig trips after half of at least five calls fail and probes again after 30s.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MinRequests:      5,
		FailureRatio:     0.5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// BreakerClient guards each Client operation with its own circuit breaker. An open breaker
// fails fast so callers substitute fallbacks without waiting on a dead upstream.
type BreakerClient struct {
	next Client
	cfg  BreakerConfig

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewBreakerClient wraps next with circuit breakers.
func NewBreakerClient(next Client, cfg BreakerConfig) *BreakerClient {
	def := DefaultBreakerConfig()
	if cfg.MinRequests == 0 {
		cfg.MinRequests = def.MinRequests
	}
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = def.FailureRatio
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenMaxCalls == 0 {
		cfg.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return &BreakerClient{
		next:     next,
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// IsCircuitOpen reports whether err came from a breaker refusing the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (b *BreakerClient) Summarize(ctx context.Context, text, language string) (string, error) {
	out, err := b.breaker("summarize").Execute(func() (any, error) {
		return b.next.Summarize(ctx, text, language)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func (b *BreakerClient) Categorize(ctx context.Context, text string) (Categorization, error) {
	out, err := b.breaker("categorize").Execute(func() (any, error) {
		return b.next.Categorize(ctx, text)
	})
	if err != nil {
		return Categorization{}, err
	}
	return out.(Categorization), nil
}

func (b *BreakerClient) ScoreSimilarity(ctx context.Context, candidate string, corpus []string) ([]float64, error) {
	out, err := b.breaker("similarity").Execute(func() (any, error) {
		return b.next.ScoreSimilarity(ctx, candidate, corpus)
	})
	if err != nil {
		return nil, err
	}
	return out.([]float64), nil
}

func (b *BreakerClient) GenerateTitle(ctx context.Context, text, language string) (string, error) {
	out, err := b.breaker("title").Execute(func() (any, error) {
		return b.next.GenerateTitle(ctx, text, language)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// StreamSummary shares the summarize breaker. Once chunks have been emitted the stream is
// not retried or replaced.
func (b *BreakerClient) StreamSummary(ctx context.Context, text, language string, emit func(chunk string) error) error {
	_, err := b.breaker("summarize").Execute(func() (any, error) {
		return nil, b.next.StreamSummary(ctx, text, language, emit)
	})
	return err
}

func (b *BreakerClient) breaker(operation string) *gobreaker.CircuitBreaker[any] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cb, ok := b.breakers[operation]; ok {
		return cb
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: b.cfg.HalfOpenMaxCalls,
		Timeout:     b.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < b.cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= b.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// A caller hanging up says nothing about upstream health.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrEmit)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.Warn("llm.breaker_state_change", map[string]any{
				"operation": name,
				"from":      from.String(),
				"to":        to.String(),
			})
			metrics.IncBreakerTransition(name, to.String())
		},
	}

	cb := gobreaker.NewCircuitBreaker[any](settings)
	b.breakers[operation] = cb
	return cb
}

var _ Client = (*BreakerClient)(nil)
