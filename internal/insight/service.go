package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

const (
	FallbackText = "My brain is tired. Try again later!"
	EmptyText    = "Add some transactions first to get an insight."

	DefaultTimeout  = 20 * time.Second
	DefaultCacheTTL = time.Hour
	tripAfter       = 5
)

// Outcome labels reported to the observer.
const (
	OutcomeOK       = "ok"
	OutcomeCached   = "cached"
	OutcomeFallback = "fallback"
	OutcomeEmpty    = "empty"
)

// ErrUnavailable is returned when no generator is configured.
var ErrUnavailable = errors.New("insight generator not configured")

// Result is the advice shown to the user. Fallback is set when the
// generator failed and FallbackText was substituted.
type Result struct {
	Text     string
	Fallback bool
}

type Options struct {
	Timeout  time.Duration
	Cache    cache.TextStore
	CacheTTL time.Duration
	// OnOutcome, when set, is called once per request with an Outcome* label.
	OnOutcome func(outcome string)
}

type Service struct {
	gen       Generator
	breaker   *gobreaker.CircuitBreaker
	cache     cache.TextStore
	timeout   time.Duration
	cacheTTL  time.Duration
	onOutcome func(string)
}

// NewService wraps gen with a timeout, circuit breaker and optional cache.
// A nil gen yields a service whose Generate returns ErrUnavailable.
func NewService(gen Generator, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	s := &Service{
		gen:       gen,
		cache:     opts.Cache,
		timeout:   opts.Timeout,
		cacheTTL:  opts.CacheTTL,
		onOutcome: opts.OnOutcome,
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "insight",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= tripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return s
}

func (s *Service) Enabled() bool { return s != nil && s.gen != nil }

// Generate returns advice for the given transactions, newest first.
// Generator failures never surface as errors; they yield the fallback text.
func (s *Service) Generate(ctx context.Context, txs []core.Transaction) (Result, error) {
	if !s.Enabled() {
		return Result{}, ErrUnavailable
	}
	if len(txs) == 0 {
		s.observe(OutcomeEmpty)
		return Result{Text: EmptyText}, nil
	}

	prompt, err := BuildPrompt(txs)
	if err != nil {
		return Result{}, fmt.Errorf("build prompt: %w", err)
	}
	key := promptKey(prompt)

	if s.cache != nil {
		text, ok, err := s.cache.GetText(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "Insight cache read failed", "error", err)
		} else if ok {
			s.observe(OutcomeCached)
			return Result{Text: text}, nil
		}
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.gen.Generate(callCtx, prompt)
	})
	if err != nil {
		slog.WarnContext(ctx, "Insight generation failed, using fallback", "error", err)
		s.observe(OutcomeFallback)
		return Result{Text: FallbackText, Fallback: true}, nil
	}

	text := out.(string)
	if s.cache != nil {
		if err := s.cache.SetText(ctx, key, text, s.cacheTTL); err != nil {
			slog.WarnContext(ctx, "Insight cache write failed", "error", err)
		}
	}
	s.observe(OutcomeOK)
	return Result{Text: text}, nil
}

func (s *Service) observe(outcome string) {
	if s.onOutcome != nil {
		s.onOutcome(outcome)
	}
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "insight:" + hex.EncodeToString(sum[:])
}
