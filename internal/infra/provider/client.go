// Package provider provides HTTP client utilities for external providers.
package provider

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrUnexpectedStatus is returned when a provider answers with a server error
// after all retries.
var ErrUnexpectedStatus = errors.New("unexpected status")

// ClientConfig holds configuration for a provider client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Retry     RetryConfig
	CB        CBConfig
}

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// NewRestyClient creates a new Resty HTTP client with retry configuration.
// The configured user agent, or the session one when empty, is sent on
// every request.
func NewRestyClient(cfg ClientConfig) *resty.Client {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = SessionUserAgent()
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetRetryCount(cfg.Retry.MaxAttempts).
		SetRetryWaitTime(cfg.Retry.WaitTime).
		SetRetryMaxWaitTime(cfg.Retry.MaxWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on network errors or 5xx status codes
			if err != nil {
				return true
			}

			return r.StatusCode() >= 500
		})

	return client
}

// NewCircuitBreaker creates a new circuit breaker for a provider.
func NewCircuitBreaker[T any](name string, cfg CBConfig, logger *zap.Logger) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("provider circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}

// Call sends a request through the breaker.
//
// Transport failures and 5xx answers count against the breaker and are
// returned as errors. Any other non-2xx answer means the object is not
// available: Call returns a nil response and a nil error.
func Call(cb *gobreaker.CircuitBreaker[*resty.Response], send func() (*resty.Response, error)) (*resty.Response, error) {
	resp, err := cb.Execute(func() (*resty.Response, error) {
		r, err := send()
		if err != nil {
			return nil, err
		}
		if r.StatusCode() >= 500 {
			return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, nil
	}

	return resp, nil
}
