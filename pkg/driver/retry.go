package driver

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/driftwatch-network/driftwatch/pkg/metrics"
)

// Retry defaults applied to every getter invoked through snapshot and
// health-check paths. PushConfig and ExecuteCommand are never retried.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = 2.0
)

// RetryPolicy retries an operation with exponential backoff: after attempt n
// (1-based) the delay is BackoffBase^n seconds. The wrapped function is
// called exactly MaxAttempts times on persistent failure and exactly once on
// first success; on exhaustion the last error is returned unchanged.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase float64
	Log         *logrus.Entry
}

// DefaultRetryPolicy returns the policy used when callers do not override it.
func DefaultRetryPolicy(log *logrus.Entry) RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, BackoffBase: DefaultBackoffBase, Log: log}
}

// Do invokes fn under the policy. name identifies the operation in logs.
func (p RetryPolicy) Do(name string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	base := p.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(base * float64(time.Second))
	bo.Multiplier = base
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	attempt := 0
	op := func() error {
		attempt++
		if attempt > 1 {
			metrics.RetryAttemptsTotal.Inc()
		}
		err := fn()
		if err != nil && attempt < attempts && p.Log != nil {
			delay := time.Duration(math.Pow(base, float64(attempt)) * float64(time.Second))
			p.Log.Warnf("Attempt %d/%d for %s failed (%v), retrying in %s", attempt, attempts, name, err, delay)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithMaxRetries(bo, uint64(attempts-1)))
}

// Collect runs a category getter under the policy and returns its map.
func Collect[T any](p RetryPolicy, name string, fn func() (map[string]T, error)) (map[string]T, error) {
	var out map[string]T
	err := p.Do(name, func() error {
		m, err := fn()
		if err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
