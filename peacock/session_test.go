package peacock_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peacockclub/assistant/peacock"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestSessionStateWindows(t *testing.T) {
	clock := newFakeClock()
	session := peacock.NewSession(
		func(ctx context.Context) (string, error) { return "pc_auth=abc", nil },
		peacock.WithClock(clock.Now),
	)

	assert.Equal(t, peacock.TokenAbsent, session.State())

	_, err := session.Cookie(context.Background())
	require.NoError(t, err)
	assert.Equal(t, peacock.TokenFresh, session.State())

	// Past the refresh point but before expiry.
	clock.Advance(peacock.TokenRefresh + time.Hour)
	assert.Equal(t, peacock.TokenStale, session.State())

	clock.Advance(peacock.TokenValidity)
	assert.Equal(t, peacock.TokenExpired, session.State())

	session.Clear()
	assert.Equal(t, peacock.TokenAbsent, session.State())
}

func TestSessionReusesFreshToken(t *testing.T) {
	var logins atomic.Int32
	session := peacock.NewSession(func(ctx context.Context) (string, error) {
		logins.Add(1)
		return "pc_auth=abc", nil
	})

	for i := 0; i < 5; i++ {
		cookie, err := session.Cookie(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "pc_auth=abc", cookie)
	}
	assert.Equal(t, int32(1), logins.Load())
}

func TestSessionStaleTokenTriggersRelogin(t *testing.T) {
	clock := newFakeClock()
	var logins atomic.Int32
	session := peacock.NewSession(func(ctx context.Context) (string, error) {
		logins.Add(1)
		return "pc_auth=abc", nil
	}, peacock.WithClock(clock.Now))

	_, err := session.Cookie(context.Background())
	require.NoError(t, err)

	clock.Advance(peacock.TokenRefresh + time.Minute)
	_, err = session.Cookie(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), logins.Load())
	assert.Equal(t, peacock.TokenFresh, session.State())
}

func TestSessionSingleFlightLogin(t *testing.T) {
	var logins atomic.Int32
	release := make(chan struct{})
	session := peacock.NewSession(func(ctx context.Context) (string, error) {
		logins.Add(1)
		<-release
		return "pc_auth=abc", nil
	})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = session.Cookie(context.Background())
		}(i)
	}

	// Let every goroutine reach the session before the login completes.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), logins.Load())
}

func TestSessionLoginFailurePropagates(t *testing.T) {
	loginErr := errors.New("invalid credentials")
	session := peacock.NewSession(func(ctx context.Context) (string, error) {
		return "", loginErr
	})

	_, err := session.Cookie(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loginErr)

	// A failed login leaves no token behind.
	assert.Equal(t, peacock.TokenAbsent, session.State())
}

func TestSessionFailureDoesNotPoison(t *testing.T) {
	calls := 0
	session := peacock.NewSession(func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("upstream down")
		}
		return "pc_auth=later", nil
	})

	_, err := session.Cookie(context.Background())
	require.Error(t, err)

	cookie, err := session.Cookie(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pc_auth=later", cookie)
}
