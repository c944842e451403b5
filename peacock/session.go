package peacock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Token lifetime windows, matching the upstream pc_auth cookie policy.
const (
	TokenValidity = 7 * 24 * time.Hour
	TokenRefresh  = 5 * 24 * time.Hour
)

// TokenState is the lifecycle state of the session token.
type TokenState int

const (
	// TokenAbsent means no token was ever obtained, or it was cleared.
	TokenAbsent TokenState = iota

	// TokenFresh means the token is valid and not yet due for renewal.
	TokenFresh

	// TokenStale means the token is still valid but past its refresh
	// point; the next request triggers a new login instead of reusing it.
	TokenStale

	// TokenExpired means the token is unusable; login is mandatory.
	TokenExpired
)

func (s TokenState) String() string {
	switch s {
	case TokenFresh:
		return "VALID_FRESH"
	case TokenStale:
		return "VALID_STALE"
	case TokenExpired:
		return "EXPIRED"
	default:
		return "ABSENT"
	}
}

// LoginFunc performs one upstream login and returns the session cookie.
type LoginFunc func(ctx context.Context) (string, error)

type sessionToken struct {
	cookie    string
	createdAt time.Time
	refreshAt time.Time
	expiresAt time.Time
}

type loginCall struct {
	done   chan struct{}
	cookie string
	err    error
}

// Session manages the process-wide upstream session token: expiry tracking,
// proactive refresh, and single-flight login. At most one login is in
// flight at a time; concurrent callers await the same outstanding login.
type Session struct {
	mu       sync.Mutex
	token    *sessionToken
	inflight *loginCall
	login    LoginFunc
	now      func() time.Time
	log      zerolog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock overrides the session's time source (tests).
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithSessionLogger sets the session's logger.
func WithSessionLogger(log zerolog.Logger) SessionOption {
	return func(s *Session) { s.log = log }
}

// NewSession creates a Session that authenticates through login.
func NewSession(login LoginFunc, opts ...SessionOption) *Session {
	s := &Session{
		login: login,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current token state. Fresh and stale are derived from
// time passage; no explicit transition call exists.
func (s *Session) State() TokenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() TokenState {
	if s.token == nil {
		return TokenAbsent
	}
	now := s.now()
	switch {
	case !now.Before(s.token.expiresAt):
		return TokenExpired
	case !now.Before(s.token.refreshAt):
		return TokenStale
	default:
		return TokenFresh
	}
}

// Cookie returns a usable session cookie, logging in first when the token
// is absent, stale or expired. A login failure propagates to every waiter;
// no automatic retry happens, the next request attempt re-triggers login.
func (s *Session) Cookie(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.stateLocked() == TokenFresh {
		cookie := s.token.cookie
		s.mu.Unlock()
		return cookie, nil
	}

	if s.inflight != nil {
		call := s.inflight
		s.mu.Unlock()
		return s.wait(ctx, call)
	}

	if state := s.stateLocked(); state == TokenStale {
		s.log.Debug().Msg("session token past refresh point, renewing")
	}

	call := &loginCall{done: make(chan struct{})}
	s.inflight = call
	s.mu.Unlock()

	cookie, err := s.login(ctx)

	s.mu.Lock()
	s.inflight = nil
	if err == nil {
		now := s.now()
		s.token = &sessionToken{
			cookie:    cookie,
			createdAt: now,
			refreshAt: now.Add(TokenRefresh),
			expiresAt: now.Add(TokenValidity),
		}
		s.log.Info().
			Time("expires_at", s.token.expiresAt).
			Time("refresh_at", s.token.refreshAt).
			Msg("logged in to Peacock API")
	}
	s.mu.Unlock()

	call.cookie, call.err = cookie, err
	close(call.done)

	if err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	return cookie, nil
}

func (s *Session) wait(ctx context.Context, call *loginCall) (string, error) {
	select {
	case <-call.done:
		if call.err != nil {
			return "", fmt.Errorf("login failed: %w", call.err)
		}
		return call.cookie, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Clear drops the token and forgets any completed login. An in-flight
// login still completes for its waiters.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
	s.log.Debug().Msg("session token cleared")
}
