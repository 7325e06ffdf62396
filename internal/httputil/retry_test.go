// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

func counting(status func(n int32) int) (*httptest.Server, *int32) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.WriteHeader(status(n))
	}))
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     func(n int32) int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{
			name:       "immediate success",
			status:     func(int32) int { return http.StatusOK },
			maxRetries: 5,
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name: "retries then 200",
			status: func(n int32) int {
				if n <= 2 {
					return http.StatusTooManyRequests
				}
				return http.StatusOK
			},
			maxRetries: 5,
			wantStatus: http.StatusOK,
			wantCalls:  3,
		},
		{
			name:       "exhausts retries",
			status:     func(int32) int { return http.StatusTooManyRequests },
			maxRetries: 2,
			wantStatus: http.StatusTooManyRequests,
			wantCalls:  3,
		},
		{
			name:       "default max retries",
			status:     func(int32) int { return http.StatusTooManyRequests },
			maxRetries: 0,
			wantStatus: http.StatusTooManyRequests,
			wantCalls:  4,
		},
		{
			name:       "retries disabled",
			status:     func(int32) int { return http.StatusTooManyRequests },
			maxRetries: -1,
			wantStatus: http.StatusTooManyRequests,
			wantCalls:  1,
		},
		{
			name:       "server error passes through",
			status:     func(int32) int { return http.StatusInternalServerError },
			maxRetries: 5,
			wantStatus: http.StatusInternalServerError,
			wantCalls:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := counting(tt.status)
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, RetryPolicy{MaxRetries: tt.maxRetries})
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestDoWithRetry_ReplaysBody(t *testing.T) {
	var bodies []string
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(b))
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, bytes.NewReader([]byte(`{"q":"filter"}`)))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, RetryPolicy{MaxRetries: 2})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{`{"q":"filter"}`, `{"q":"filter"}`}, bodies)
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	ts, _ := counting(func(int32) int { return http.StatusTooManyRequests })
	defer ts.Close()

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = DoWithRetry(ctx, ts.Client(), req, RetryPolicy{MaxRetries: 5})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, time.Duration(0), retryAfter(""))
	assert.Equal(t, time.Duration(0), retryAfter("soon"))
	assert.Equal(t, 3*time.Second, retryAfter("3"))
	assert.Equal(t, MaxRetryAfter, retryAfter("86400"))

	future := time.Now().Add(5 * time.Second).UTC().Format(http.TimeFormat)
	d := retryAfter(future)
	assert.Greater(t, d, time.Duration(0))
	assert.LessOrEqual(t, d, 5*time.Second)
}

func TestLimitedTransport(t *testing.T) {
	ts, calls := counting(func(int32) int { return http.StatusOK })
	defer ts.Close()

	client := &http.Client{Transport: NewLimitedTransport(ts.Client().Transport, 0)}
	for i := 0; i < 3; i++ {
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))

	limited := &http.Client{Transport: NewLimitedTransport(ts.Client().Transport, 0.001)}
	resp, err := limited.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	_, err = limited.Do(req)
	assert.Error(t, err, "second request must wait far longer than the deadline")
}
