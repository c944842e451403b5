package peacock_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peacockclub/assistant/peacock"
)

func TestClassifyKinds(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind peacock.ErrorKind
	}{
		{"rate limit text", errors.New("Rate limit exceeded"), peacock.KindRateLimit},
		{"too many requests", errors.New("too many requests, slow down"), peacock.KindRateLimit},
		{"status 429", errors.New("upstream returned 429"), peacock.KindRateLimit},
		{"quota", errors.New("monthly quota exhausted"), peacock.KindQuota},
		{"login failed", errors.New("login failed: invalid credentials"), peacock.KindAuth},
		{"missing cookie", errors.New("no session cookie received from login"), peacock.KindAuth},
		{"unauthorized", errors.New("Unauthorized"), peacock.KindAuth},
		{"status 401", errors.New("server said 401"), peacock.KindAuth},
		{"timeout", errors.New("request timeout after 30s"), peacock.KindTimeout},
		{"deadline", errors.New("context deadline exceeded"), peacock.KindTimeout},
		{"refused", errors.New("dial tcp: connection refused"), peacock.KindNetwork},
		{"dns", errors.New("lookup api.club: no such host"), peacock.KindNetwork},
		{"generic", errors.New("something else broke"), peacock.KindGeneric},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := peacock.Classify(tc.err, "/api/test")
			require.NotNil(t, apiErr)
			assert.Equal(t, tc.kind, apiErr.Kind)
			assert.Equal(t, "/api/test", apiErr.Endpoint)
		})
	}
}

func TestClassifyRateLimitBeforeAuth(t *testing.T) {
	// A message matching both tables classifies by the earlier pattern.
	apiErr := peacock.Classify(errors.New("rate limit hit during authentication"), "/api/x")
	assert.Equal(t, peacock.KindRateLimit, apiErr.Kind)
}

func TestClassifyExtractsStatusCode(t *testing.T) {
	apiErr := peacock.Classify(errors.New("API request failed: 503 Service Unavailable"), "/api/health")
	assert.Equal(t, 503, apiErr.StatusCode)
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, peacock.Classify(nil, "/api/x"))
}

func TestClassifyPreservesAPIError(t *testing.T) {
	original := peacock.Classify(errors.New("timeout"), "/api/a")
	again := peacock.Classify(original, "/api/b")
	assert.Same(t, original, again)
}

func TestClassifyUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("fetch failed: %w", cause)

	apiErr := peacock.Classify(wrapped, "/api/x")
	assert.ErrorIs(t, apiErr, cause)
}

func TestUserFacingMessages(t *testing.T) {
	apiErr := peacock.Classify(errors.New("too many requests"), "/api/x")
	assert.Contains(t, apiErr.Message, "try again shortly")

	apiErr = peacock.Classify(errors.New("connection refused"), "/api/x")
	assert.Contains(t, apiErr.Message, "check your connection")

	// Generic failures surface the raw message.
	apiErr = peacock.Classify(errors.New("weird upstream state"), "/api/x")
	assert.Equal(t, "weird upstream state", apiErr.Message)
}
