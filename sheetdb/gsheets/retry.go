// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package gsheets

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"storj.io/common/sync2"
)

// RetryConfig contains the configuration for retrying spreadsheet API calls.
type RetryConfig struct {
	InitialBackoff time.Duration `help:"the duration of the first retry interval" default:"250ms"`
	MaxBackoff     time.Duration `help:"the maximum duration of any retry interval" default:"10s"`
	Multiplier     float64       `help:"the factor by which the retry interval will be multiplied on each iteration" default:"2"`
	MaxRetries     int           `help:"the maximum number of times to retry a request" default:"5"`
}

// callKind tells whether a call may be repeated after a server error.
type callKind bool

const (
	idempotent    callKind = true
	notIdempotent callKind = false
)

// caller throttles and retries spreadsheet API calls.
type caller struct {
	log     *zap.Logger
	retry   RetryConfig
	limiter *rate.Limiter
}

func newCaller(log *zap.Logger, retry RetryConfig, requestsPerMinute int) *caller {
	limit := rate.Inf
	burst := 1
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
		burst = requestsPerMinute
	}
	return &caller{
		log:     log,
		retry:   retry,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// withRetries executes call using an exponential backoff strategy for
// retrying in the case of failure.
func (c *caller) withRetries(ctx context.Context, op string, kind callKind, call func() error) error {
	backoff := float64(c.retry.InitialBackoff)
	for retry := 0; ; retry++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := call()
		if err == nil {
			return nil
		}
		if !c.shouldRetry(retry, kind, err) {
			return err
		}

		c.log.Debug("retrying spreadsheet call",
			zap.String("op", op),
			zap.Int("retry", retry+1),
			zap.Duration("backoff", time.Duration(backoff)),
			zap.Error(err))

		if !sync2.Sleep(ctx, time.Duration(backoff)) {
			return ctx.Err()
		}
		backoff = math.Min(backoff*c.retry.Multiplier, float64(c.retry.MaxBackoff))
	}
}

// shouldRetry returns whether a failed call should be repeated. Rate limit
// rejections are always retried, server errors only for idempotent calls.
func (c *caller) shouldRetry(retry int, kind callKind, err error) bool {
	if retry >= c.retry.MaxRetries {
		return false
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return kind == idempotent
	default:
		return false
	}
}
