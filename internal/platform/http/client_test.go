package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsEachRequestOnce(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{RequestsPerSec: 100})

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClientRateLimitHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{RequestsPerSec: 1, Burst: 1})

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	// the bucket is now empty; a short deadline cannot be met
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = client.Do(req)
	require.Error(t, err)

	var rateErr *RateLimitError
	assert.True(t, errors.As(err, &rateErr))
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(ClientOptions{})

	assert.Equal(t, 30*time.Second, client.Timeout)
	transport, ok := client.Transport.(*RateLimitedTransport)
	require.True(t, ok)
	assert.Equal(t, 5, transport.Limiter.Burst())
}
