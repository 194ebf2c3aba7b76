// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retry runs an operation again after transient failures, with a
// backoff between attempts.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/go-arcade/courier/pkg/log"
	"github.com/pkg/errors"
)

// Func is a retryable operation. It must respect ctx.
type Func func(ctx context.Context) error

// Backoff returns the wait before retry number attempt, counting from 0.
type Backoff interface {
	Next(attempt int) time.Duration
}

type fixedBackoff time.Duration

func (b fixedBackoff) Next(int) time.Duration {
	return time.Duration(b)
}

// Fixed waits the same interval before every retry.
func Fixed(interval time.Duration) Backoff {
	return fixedBackoff(interval)
}

type exponentialBackoff struct {
	base time.Duration
	max  time.Duration
}

func (b exponentialBackoff) Next(attempt int) time.Duration {
	d := b.base << min(attempt, 30)
	if b.max > 0 && (d > b.max || d <= 0) {
		return b.max
	}
	return d
}

// Exponential doubles the wait after every retry, up to max when max is
// positive.
func Exponential(base, max time.Duration) Backoff {
	return exponentialBackoff{base: base, max: max}
}

// Jitter spreads waits of concurrent callers apart.
type Jitter func(time.Duration) time.Duration

// NoJitter keeps the wait unchanged.
func NoJitter(d time.Duration) time.Duration {
	return d
}

// FullJitter picks a wait in [0, d).
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}

type permanent struct {
	err error
}

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying. Do returns err itself.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanent{err: err}
}

type config struct {
	name        string
	maxAttempts int
	backoff     Backoff
	jitter      Jitter
}

// Option configures Do.
type Option func(*config)

// WithMaxAttempts bounds the number of attempts, the first included.
// Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the wait between attempts.
func WithBackoff(b Backoff) Option {
	return func(c *config) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithJitter randomizes the waits.
func WithJitter(j Jitter) Option {
	return func(c *config) {
		if j != nil {
			c.jitter = j
		}
	}
}

// WithName labels the operation in retry log lines.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// Do runs fn until it succeeds, returns a permanent error, the attempts run
// out or ctx is done. It returns the last error of fn, or ctx's error.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	cfg := &config{
		name:        "operation",
		maxAttempts: 3,
		backoff:     Fixed(time.Second),
		jitter:      NoJitter,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var err error
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		var p permanent
		if errors.As(err, &p) {
			return p.err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == cfg.maxAttempts-1 {
			break
		}

		wait := cfg.jitter(cfg.backoff.Next(attempt))
		log.Warnw("retrying after failure",
			"operation", cfg.name,
			"attempt", attempt+1,
			"wait", wait,
			"error", err,
		)
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return err
}
