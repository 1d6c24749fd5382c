// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package provider

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// retrier runs network requests for a provider. Each attempt first takes a token from
// the shared limiter and then runs under its own deadline. Failed attempts are retried
// with exponential backoff: the delay before attempt n+1 is baseDelay * 2^(n-1).
type retrier struct {
	limiter   *rate.Limiter
	timeout   time.Duration
	attempts  int
	baseDelay time.Duration
	logger    *slog.Logger
}

func newRetrier(o *options, logger *slog.Logger) *retrier {
	return &retrier{
		limiter:   o.limiter,
		timeout:   o.timeout,
		attempts:  o.attempts,
		baseDelay: o.baseDelay,
		logger:    logger,
	}
}

// do calls request until it succeeds, the attempts run out or ctx ends.
// A nil limiter or a non-positive timeout disables pacing or the deadline.
// Returns the error from the last attempt if all attempts fail.
func (r *retrier) do(ctx context.Context, target string, request func(ctx context.Context) error) error {
	if r.attempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		lastErr = r.attempt(ctx, request)
		if lastErr == nil {
			if attempt > 1 {
				r.logger.Debug("request succeeded after retry", "target", target, "attempt", attempt)
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		r.logger.Debug("request failed", "target", target, "attempt", attempt, "maxAttempts", r.attempts, "error", lastErr)

		if attempt == r.attempts {
			break
		}

		timer := time.NewTimer(r.baseDelay << (attempt - 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

func (r *retrier) attempt(ctx context.Context, request func(ctx context.Context) error) error {
	if r.timeout <= 0 {
		return request(ctx)
	}
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return request(reqCtx)
}
