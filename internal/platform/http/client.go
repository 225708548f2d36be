package http

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ClientOptions holds options for creating a new rate limited client
type ClientOptions struct {
	Timeout        time.Duration
	RequestsPerSec int
	Burst          int
	Transport      http.RoundTripper
}

// NewClient creates an HTTP client that waits on a token bucket before every request.
// Requests are attempted once; retries are left to the caller.
func NewClient(opts ClientOptions) *http.Client {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.Burst == 0 {
		opts.Burst = opts.RequestsPerSec
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	return &http.Client{
		Timeout: opts.Timeout,
		Transport: &RateLimitedTransport{
			Base:    opts.Transport,
			Limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.Burst),
		},
	}
}

// RateLimitedTransport is an http.RoundTripper guarded by a rate limiter
type RateLimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Wait for rate limiter
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, &RateLimitError{Err: err}
	}
	return t.Base.RoundTrip(req)
}

// RateLimitError is returned when the limiter gives up waiting for a token
type RateLimitError struct {
	Err error
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	return "rate limiter error: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error { return e.Err }
