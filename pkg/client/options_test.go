package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	custom := &http.Client{Timeout: 60 * time.Second}
	logger := &testLogger{}

	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(custom),
		WithLogger(logger),
		WithRetryMax(5),
		WithUserAgent("probe/1"),
	)
	require.NoError(t, err)
	assert.Same(t, custom, c.httpClient)
	assert.Same(t, logger, c.logger)
	assert.Equal(t, 5, c.retryMax)
	assert.Equal(t, "probe/1", c.userAgent)
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	c, err := NewClient("http://localhost:8080",
		WithHTTPClient(nil),
		WithLogger(nil),
		WithRetryMax(-1),
		WithUserAgent(""),
		WithTimeout(0),
	)
	require.NoError(t, err)
	assert.NotNil(t, c.httpClient)
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.Equal(t, noopLogger{}, c.logger)
	assert.Equal(t, 3, c.retryMax)
	assert.Contains(t, c.userAgent, "molgraph-go-sdk/")
}

func TestWithTimeout_DoesNotMutateSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c, err := NewClient("http://localhost:8080", WithHTTPClient(shared), WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
	assert.Equal(t, time.Minute, shared.Timeout)
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name             string
		min, max         time.Duration
		wantMin, wantMax time.Duration
	}{
		{"valid range", time.Second, 10 * time.Second, time.Second, 10 * time.Second},
		{"max below min keeps max", 2 * time.Second, time.Second, 2 * time.Second, 5 * time.Second},
		{"non-positive min ignored", 0, time.Second, 500 * time.Millisecond, 5 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient("http://localhost:8080", WithRetryWait(tt.min, tt.max))
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, c.retryWaitMin)
			assert.Equal(t, tt.wantMax, c.retryWaitMax)
		})
	}
}

//Personal.AI order the ending
