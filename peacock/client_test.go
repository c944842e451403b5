package peacock_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peacockclub/assistant/peacock"
)

// fakeUpstream is a minimal Peacock API for client tests.
type fakeUpstream struct {
	logins       atomic.Int32
	healthCalls  atomic.Int32
	loanCalls    atomic.Int32
	failLogin    bool
	lastCookie   string
	lastQuery    string
	lastTxCreate map[string]interface{}
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		if f.failLogin {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "pc_auth", Value: "tok123"})
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.lastCookie = r.Header.Get("Cookie")
			if f.lastCookie == "" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		f.healthCalls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/account/loan", authed(func(w http.ResponseWriter, r *http.Request) {
		f.loanCalls.Add(1)
		json.NewEncoder(w).Encode([]map[string]string{{"id": "m1"}})
	}))

	mux.HandleFunc("/api/account/member/", authed(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"username": "asha.rao"})
	}))

	mux.HandleFunc("/api/transaction", authed(func(w http.ResponseWriter, r *http.Request) {
		f.lastQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{"transactions": []string{}})
	}))

	mux.HandleFunc("/api/transaction/create", authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		f.lastTxCreate = body
		json.NewEncoder(w).Encode(map[string]string{"id": "tx-new"})
	}))

	return mux
}

func newTestClient(t *testing.T, upstream *fakeUpstream) *peacock.Client {
	t.Helper()
	server := httptest.NewServer(upstream.handler())
	t.Cleanup(server.Close)

	client, err := peacock.New(server.URL, "admin", "peacock")
	require.NoError(t, err)
	return client
}

func TestClientLoginAndAuthenticatedCall(t *testing.T) {
	upstream := &fakeUpstream{}
	client := newTestClient(t, upstream)

	data, err := client.GetLoanAccounts(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"m1"}]`, string(data))
	assert.Equal(t, int32(1), upstream.logins.Load())
	assert.Equal(t, "pc_auth=tok123", upstream.lastCookie)
	assert.Equal(t, peacock.TokenFresh, client.Session().State())
}

func TestClientCachesResponses(t *testing.T) {
	upstream := &fakeUpstream{}
	client := newTestClient(t, upstream)

	for i := 0; i < 3; i++ {
		_, err := client.GetLoanAccounts(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), upstream.loanCalls.Load())

	client.ClearCaches()
	_, err := client.GetLoanAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.loanCalls.Load())
	// Clearing caches also dropped the session token.
	assert.Equal(t, int32(2), upstream.logins.Load())
}

func TestClientHealthNeverCached(t *testing.T) {
	upstream := &fakeUpstream{}
	client := newTestClient(t, upstream)

	for i := 0; i < 3; i++ {
		_, err := client.Health(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), upstream.healthCalls.Load())
	// Health is unauthenticated: no login happened.
	assert.Equal(t, int32(0), upstream.logins.Load())
}

func TestClientLoginFailure(t *testing.T) {
	upstream := &fakeUpstream{failLogin: true}
	client := newTestClient(t, upstream)

	_, err := client.GetLoanAccounts(context.Background())
	require.Error(t, err)

	var apiErr *peacock.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, peacock.KindAuth, apiErr.Kind)
}

func TestClientUpstreamErrorWrapped(t *testing.T) {
	upstream := &fakeUpstream{}
	client := newTestClient(t, upstream)

	_, err := client.DeleteTransaction(context.Background(), "nope")
	require.Error(t, err)

	var apiErr *peacock.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClientTransactionFilters(t *testing.T) {
	upstream := &fakeUpstream{}
	client := newTestClient(t, upstream)

	_, err := client.GetTransactions(context.Background(), peacock.TransactionFilters{
		Page:            2,
		Limit:           25,
		AccountID:       "m1",
		TransactionType: "DEPOSIT",
		SortOrder:       "asc",
	})
	require.NoError(t, err)

	assert.Contains(t, upstream.lastQuery, "page=2")
	assert.Contains(t, upstream.lastQuery, "limit=25")
	assert.Contains(t, upstream.lastQuery, "accountId=m1")
	assert.Contains(t, upstream.lastQuery, "transactionType=DEPOSIT")
	assert.Contains(t, upstream.lastQuery, "sortOrder=asc")
}

func TestClientCreateTransaction(t *testing.T) {
	upstream := &fakeUpstream{}
	client := newTestClient(t, upstream)

	data, err := client.CreateTransaction(context.Background(), peacock.CreateTransactionParams{
		FromID:          "m1",
		ToID:            "m2",
		Amount:          250,
		TransactionType: "DEPOSIT",
		Description:     "June deposit",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"tx-new"}`, string(data))

	assert.Equal(t, "m1", upstream.lastTxCreate["fromId"])
	assert.Equal(t, "m2", upstream.lastTxCreate["toId"])
	assert.Equal(t, 250.0, upstream.lastTxCreate["amount"])
	// Omitted optional fields stay off the wire.
	_, present := upstream.lastTxCreate["occurredAt"]
	assert.False(t, present)
}
