// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

// sequenceServer answers with statuses in order, repeating the last one.
func sequenceServer(t *testing.T, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(&calls, 1))
		w.WriteHeader(statuses[min(n, len(statuses))-1])
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"ok first time", []int{200}, 5, 200, 1},
		{"two 429s then ok", []int{429, 429, 200}, 5, 200, 3},
		{"gives up with the last 429", []int{429}, 3, 429, 4},
		{"zero means default retries", []int{429}, 0, 429, 1 + defaultMaxRetries},
		{"server error is not retried", []int{500}, 5, 500, 1},
		{"not found is not retried", []int{404, 200}, 5, 404, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, calls := sequenceServer(t, tt.statuses...)
			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := DoWithRetry(context.Background(), ts.Client(), req, tt.maxRetries, nullLog())
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(calls))
		})
	}
}

func TestDoWithRetry_StopsOnCancel(t *testing.T) {
	ts, _ := sequenceServer(t, http.StatusTooManyRequests)

	saved := RetryBaseDelay
	RetryBaseDelay = time.Second
	t.Cleanup(func() { RetryBaseDelay = saved })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = DoWithRetry(ctx, ts.Client(), req, 5, nullLog())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), RetryBaseDelay)
}

func nullLog() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

func TestDoWithRetry_ReplaysBody(t *testing.T) {
	var calls int32
	var bodies []string
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

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader("%PDF-1.4 payload"))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 3, nullLog())
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"%PDF-1.4 payload", "%PDF-1.4 payload"}, bodies)
}

func TestDoWithRetry_BodyNotReplayable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, io.NopCloser(strings.NewReader("stream")))
	require.NoError(t, err)

	_, err = DoWithRetry(context.Background(), ts.Client(), req, 3, nullLog())
	assert.ErrorIs(t, err, ErrBodyNotReplayable)
}

func TestDoWithRetry_LogsBackoff(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	log, hook := test.NewNullLogger()
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 3, log)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Rate limited, retrying.", hook.LastEntry().Message)
	assert.Equal(t, time.Duration(0), hook.LastEntry().Data["backoff"])
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		attempt    int
		want       time.Duration
	}{
		{"retry-after seconds", "3", 0, 3 * time.Second},
		{"retry-after capped", "3600", 0, MaxRetryAfter},
		{"no header, first attempt", "", 0, RetryBaseDelay},
		{"no header, third attempt", "", 2, 4 * RetryBaseDelay},
		{"http-date falls back to backoff", "Wed, 21 Oct 2026 07:28:00 GMT", 1, 2 * RetryBaseDelay},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryDelay(tt.retryAfter, tt.attempt))
		})
	}
}
