package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_TransactionsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/ethereum/address/0xabc/transactions", r.URL.Path)
		if r.URL.Query().Get("cursor") == "" {
			w.Write([]byte(`{"transactions":[{"hash":"0x1","value":"100"}],"next_cursor":"p2"}`))
			return
		}
		w.Write([]byte(`{"transactions":[{"hash":"0x2","value":"200"}],"next_cursor":""}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.BaseURL = server.URL
	client := NewClient(cfg)

	page, err := client.Transactions(context.Background(), "ethereum", "0xabc", "")
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, "0x1", page.Transactions[0].Hash)
	assert.Equal(t, "p2", page.NextCursor)

	page, err = client.Transactions(context.Background(), "ethereum", "0xabc", page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, "0x2", page.Transactions[0].Hash)
	assert.Empty(t, page.NextCursor)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"balances":[{"token":"USDC","balance":"5000000"}]}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.BaseURL = server.URL
	cfg.Retries = 3
	client := NewClient(cfg)

	balances, err := client.Balances(context.Background(), "ethereum", "0xabc")
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, "USDC", balances[0].Token)
	assert.EqualValues(t, 3, hits.Load())
}

func TestClient_CallTimeoutBounds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(`{"protocols":[]}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig()
	cfg.BaseURL = server.URL
	cfg.CallTimeout = 50 * time.Millisecond
	cfg.Retries = 1
	client := NewClient(cfg)

	start := time.Now()
	_, err := client.Interactions(context.Background(), "ethereum", "0xabc")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}
