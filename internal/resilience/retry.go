// Package resilience delivers tool actions to the backend: synchronous
// retry with exponential backoff for transient failures, and an offline
// queue that buffers undeliverable actions for replay on reconnect.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/apperrors"
)

// RetryConfig configures retry behavior. The defaults are tunables carried
// in configuration, not business requirements.
type RetryConfig struct {
	MaxRetries     int           // retries after the first attempt
	InitialBackoff time.Duration // first delay; grows by Multiplier each retry
	Multiplier     float64
	MaxBackoff     time.Duration // delay cap
	Jitter         float64       // fraction of the delay added (never subtracted) at random
	AttemptTimeout time.Duration // independent timeout per attempt
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		Multiplier:     2.0,
		MaxBackoff:     30 * time.Second,
		Jitter:         0.2,
		AttemptTimeout: 10 * time.Second,
	}
}

// Executor runs operations with retry. The sleep and random functions are
// injectable so tests never wait on real time.
type Executor struct {
	cfg    RetryConfig
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	random func() float64
}

func NewExecutor(cfg RetryConfig, logger *zap.Logger) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = DefaultRetryConfig().Multiplier
	}
	return &Executor{
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
		random: rand.Float64,
	}
}

// Do runs fn up to 1+MaxRetries times. Each attempt gets its own timeout;
// exceeding it counts as a failed attempt, not a silent hang. Only transient
// errors are retried; everything else aborts immediately.
func (e *Executor) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := e.attempt(ctx, fn)
		if err == nil {
			if attempt > 0 {
				e.logger.Info("retry succeeded",
					zap.String("operation", operation),
					zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !Retryable(err) {
			return err
		}
		lastErr = err

		e.logger.Warn("attempt failed",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", e.cfg.MaxRetries+1),
			zap.Error(err))

		if attempt < e.cfg.MaxRetries {
			if err := e.sleep(ctx, e.backoff(attempt)); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s: retries exhausted after %d attempts: %w",
		operation, e.cfg.MaxRetries+1, lastErr)
}

func (e *Executor) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if e.cfg.AttemptTimeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
	defer cancel()
	return fn(attemptCtx)
}

// backoff computes min(initial * multiplier^attempt, cap) plus bounded
// additive jitter so retries spread out instead of clustering.
func (e *Executor) backoff(attempt int) time.Duration {
	delay := float64(e.cfg.InitialBackoff) * math.Pow(e.cfg.Multiplier, float64(attempt))
	if delay > float64(e.cfg.MaxBackoff) {
		delay = float64(e.cfg.MaxBackoff)
	}
	if e.cfg.Jitter > 0 {
		delay += delay * e.cfg.Jitter * e.random()
	}
	return time.Duration(delay)
}

// transientStatusCodes are the HTTP status codes treated as transient server
// conditions.
var transientStatusCodes = map[int]bool{
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// Retryable reports whether an error is a transport-layer failure or carries
// one of the transient status codes. All other errors are permanent.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var statusErr *apperrors.StatusError
	if errors.As(err, &statusErr) {
		return transientStatusCodes[statusErr.Code]
	}

	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
