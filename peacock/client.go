package peacock

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// sessionCookieName is the auth cookie the upstream sets on login.
const sessionCookieName = "pc_auth"

// Client is the typed gateway to the Peacock club API. Every authenticated
// call is routed through the session token and the response cache.
type Client struct {
	rest     *resty.Client
	session  *Session
	cache    *ResponseCache
	username string
	password string
	log      zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.rest.SetTimeout(d) }
}

// WithSessionClock overrides the session token time source (tests).
func WithSessionClock(now func() time.Time) ClientOption {
	return func(c *Client) { WithClock(now)(c.session) }
}

// New creates a Client for the API at baseURL, authenticating with the
// given admin credentials.
func New(baseURL, username, password string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		rest: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second),
		username: username,
		password: password,
		log:      zerolog.Nop(),
	}
	c.session = NewSession(c.doLogin)

	for _, opt := range opts {
		opt(c)
	}

	cache, err := NewResponseCache(c.log)
	if err != nil {
		return nil, err
	}
	c.cache = cache
	WithSessionLogger(c.log)(c.session)

	return c, nil
}

// Session exposes the session token manager (state inspection, clearing).
func (c *Client) Session() *Session { return c.session }

// Cache exposes the response cache (clearing, stats).
func (c *Client) Cache() *ResponseCache { return c.cache }

// ClearCaches drops both the response cache and the session token, as the
// user-facing "clear cache" action does.
func (c *Client) ClearCaches() {
	c.cache.Clear()
	c.session.Clear()
}

// doLogin performs the upstream login and extracts the pc_auth cookie.
func (c *Client) doLogin(ctx context.Context) (string, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"username": c.username,
			"password": c.password,
		}).
		Post("/api/auth/login")
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("login failed: %d %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	for _, cookie := range resp.Cookies() {
		if cookie.Name == sessionCookieName {
			return sessionCookieName + "=" + cookie.Value, nil
		}
	}
	return "", fmt.Errorf("no session cookie received from login")
}

// request routes one call through cache and session. Health and login
// endpoints are never cached and never authenticated; everything else
// requires the session cookie. Only successful, parseable responses are
// cached.
func (c *Client) request(ctx context.Context, method, endpoint string, body interface{}) (json.RawMessage, error) {
	cacheable := !strings.Contains(endpoint, "/health") && !strings.Contains(endpoint, "/auth/login")

	if cacheable {
		if data, ok := c.cache.Get(method, endpoint, body); ok {
			c.log.Debug().Str("endpoint", endpoint).Msg("cache hit")
			return data, nil
		}
		c.log.Debug().Str("endpoint", endpoint).Msg("cache miss")
	}

	req := c.rest.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	if cacheable {
		cookie, err := c.session.Cookie(ctx)
		if err != nil {
			return nil, Classify(err, endpoint)
		}
		req.SetHeader("Cookie", cookie)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		apiErr := Classify(err, endpoint)
		c.log.Error().Err(err).Str("endpoint", endpoint).Msg("API request error")
		return nil, apiErr
	}

	if resp.IsError() {
		apiErr := Classify(upstreamError(resp), endpoint)
		apiErr.StatusCode = resp.StatusCode()
		c.log.Error().
			Int("status", resp.StatusCode()).
			Str("endpoint", endpoint).
			Msg("API request failed")
		return nil, apiErr
	}

	raw := resp.Body()
	var data json.RawMessage
	if json.Valid(raw) {
		data = json.RawMessage(raw)
	} else {
		// Plain-text responses are wrapped so callers always get JSON.
		data, _ = json.Marshal(string(raw))
	}

	if cacheable {
		c.cache.Set(method, endpoint, body, data)
	}
	return data, nil
}

// upstreamError extracts the error message from a non-2xx response body.
func upstreamError(resp *resty.Response) error {
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &parsed); err == nil {
		if parsed.Error != "" {
			return fmt.Errorf("%s", parsed.Error)
		}
		if parsed.Message != "" {
			return fmt.Errorf("%s", parsed.Message)
		}
	}
	if text := strings.TrimSpace(resp.String()); text != "" {
		return fmt.Errorf("%s", text)
	}
	return fmt.Errorf("API request failed: %d %s", resp.StatusCode(), resp.Status())
}

// Health probes the upstream health endpoint. Never cached.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	return c.request(ctx, "GET", "/api/health", nil)
}

// GetMemberDetails looks up a member by username.
func (c *Client) GetMemberDetails(ctx context.Context, username string) (json.RawMessage, error) {
	return c.request(ctx, "POST", "/api/account/member/"+url.PathEscape(username), nil)
}

// GetLoanAccounts lists loan accounts.
func (c *Client) GetLoanAccounts(ctx context.Context) (json.RawMessage, error) {
	return c.request(ctx, "POST", "/api/account/loan", nil)
}

// TransactionFilters narrows and paginates a transaction listing.
type TransactionFilters struct {
	Page            int
	Limit           int
	AccountID       string
	TransactionType string
	StartDate       string
	EndDate         string
	SortField       string
	SortOrder       string
}

func (f TransactionFilters) query() string {
	values := url.Values{}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		values.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.AccountID != "" {
		values.Set("accountId", f.AccountID)
	}
	if f.TransactionType != "" {
		values.Set("transactionType", f.TransactionType)
	}
	if f.StartDate != "" {
		values.Set("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		values.Set("endDate", f.EndDate)
	}
	if f.SortField != "" {
		values.Set("sortField", f.SortField)
	}
	if f.SortOrder != "" {
		values.Set("sortOrder", f.SortOrder)
	}
	return values.Encode()
}

// GetTransactions lists transactions matching the filters.
func (c *Client) GetTransactions(ctx context.Context, filters TransactionFilters) (json.RawMessage, error) {
	endpoint := "/api/transaction"
	if q := filters.query(); q != "" {
		endpoint += "?" + q
	}
	return c.request(ctx, "POST", endpoint, nil)
}

// Search runs a full-text search across members, vendors, loans and
// transactions.
func (c *Client) Search(ctx context.Context, query string) (json.RawMessage, error) {
	return c.request(ctx, "POST", "/api/search", map[string]string{"searchQuery": query})
}

// CreateTransactionParams is the payload for recording a new transaction.
type CreateTransactionParams struct {
	FromID          string  `json:"fromId"`
	ToID            string  `json:"toId"`
	Amount          float64 `json:"amount"`
	TransactionType string  `json:"transactionType"`
	OccurredAt      string  `json:"occurredAt,omitempty"`
	Description     string  `json:"description,omitempty"`
}

// CreateTransaction records a new transaction upstream.
func (c *Client) CreateTransaction(ctx context.Context, params CreateTransactionParams) (json.RawMessage, error) {
	return c.request(ctx, "POST", "/api/transaction/create", params)
}

// DeleteTransaction removes a transaction by id.
func (c *Client) DeleteTransaction(ctx context.Context, transactionID string) (json.RawMessage, error) {
	return c.request(ctx, "DELETE", "/api/transaction/"+url.PathEscape(transactionID), nil)
}
