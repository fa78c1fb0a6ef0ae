package rentri

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPolicy_Contract(t *testing.T) {
	policy := PushPolicy()

	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, 1*time.Second, policy.Backoff(1))
	assert.Equal(t, 2*time.Second, policy.Backoff(2))

	assert.False(t, policy.Retryable(&RejectionError{Status: http.StatusBadRequest}))
	assert.True(t, policy.Retryable(&RejectionError{Status: http.StatusServiceUnavailable}))
	assert.True(t, policy.Retryable(&TransportError{Err: context.DeadlineExceeded}))
}

func TestPolicy_NormalizedDefaults(t *testing.T) {
	p := Policy{}.normalized()
	assert.Equal(t, 1, p.MaxAttempts)
	assert.Equal(t, time.Duration(0), p.Backoff(1))
	assert.NotNil(t, p.Retryable)
	assert.NotNil(t, p.Sleep)
}

func TestSleepContext_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepContext(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRejectionStatus(t *testing.T) {
	assert.Equal(t, 422, RejectionStatus(&RejectionError{Status: 422}, 500))
	assert.Equal(t, 500, RejectionStatus(&TransportError{Err: context.DeadlineExceeded}, 500))
}
