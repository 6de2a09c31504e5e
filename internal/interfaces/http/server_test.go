package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletiq/internal/app"
	"walletiq/internal/cache"
	"walletiq/internal/config"
	"walletiq/internal/domain"
	"walletiq/internal/health"
	httpserver "walletiq/internal/interfaces/http"
	"walletiq/internal/interfaces/http/handlers"
	"walletiq/internal/metrics"
	"walletiq/internal/provider"
	"walletiq/internal/registry"
)

const testAddr = "0x742d35cc6634c0532925a3b844bc9e7595f0beb0"
const funderAddr = "0x1111111111111111111111111111111111111111"

func testProjects() []domain.Project {
	return []domain.Project{
		{
			ID: "arb", Name: "Arbitrum", Status: domain.StatusConfirmed,
			Chains: []string{"ethereum"}, EstimatedValue: 2000,
			SnapshotDate: time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
			Criteria: []domain.Criterion{
				{Type: domain.CriterionTxCountMin, MinCount: 1},
			},
		},
		{
			ID: "zora", Name: "Zora", Status: domain.StatusRumored,
			Chains: []string{"ethereum"}, EstimatedValue: 500,
			SnapshotDate: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
			Criteria: []domain.Criterion{
				{Type: domain.CriterionTxCountMin, MinCount: 1000},
			},
		},
	}
}

func testFake() *provider.Fake {
	fake := provider.NewFake()
	fake.Chains["ethereum"] = provider.FakeChain{
		Pages: []provider.TxPage{
			{Transactions: []provider.RawTransaction{
				{Hash: "0x1", Timestamp: time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)},
			}},
		},
		Balances:  []provider.TokenBalance{{Token: "USDC", Balance: "1000000"}},
		Protocols: []string{"uniswap"},
	}
	fake.Edges = []domain.TransferEdge{
		{From: funderAddr, To: testAddr, Value: domain.Amount("5000"), TxCount: 2},
	}
	return fake
}

func newTestServer(t *testing.T, source provider.ChainData) (*httpserver.Server, *provider.Counting) {
	t.Helper()
	counting := provider.NewCounting(source)

	cfg := config.Default()
	cfg.Chains = []string{"ethereum"}

	m := metrics.NewRegistry()
	svc, err := app.New(
		counting,
		&registry.Static{Entries: testProjects()},
		cache.NewMemory(),
		health.DefaultWeights(),
		cfg,
		m,
	)
	require.NoError(t, err)

	h := handlers.NewHandlers(svc, m, map[string]handlers.HealthChecker{
		"provider": func(ctx context.Context) string { return "ok" },
	})
	t.Cleanup(h.Close)

	return httpserver.NewServer(httpserver.ServerConfig{Host: "127.0.0.1", Port: 0}, h, m), counting
}

func get(t *testing.T, srv *httpserver.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestEligibilityEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testFake())

	rec := get(t, srv, "/eligibility/"+testAddr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var report domain.EligibilityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, testAddr, report.Address)
	require.Len(t, report.ProjectScores, 2)
}

func TestEligibilityEndpoint_InvalidAddress(t *testing.T) {
	srv, counting := newTestServer(t, testFake())

	rec := get(t, srv, "/eligibility/not-an-address")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusText(http.StatusBadRequest), resp.Error)
	assert.Contains(t, resp.Details, "address")
	assert.EqualValues(t, 0, counting.Calls(), "bad address must not reach the provider")
}

func TestEligibilityEndpoint_UpstreamDown(t *testing.T) {
	fake := testFake()
	fake.FailAll = true
	srv, _ := newTestServer(t, fake)

	rec := get(t, srv, "/eligibility/"+testAddr)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, strings.ToLower(resp.Details), "key")
}

func TestTrendingEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testFake())

	rec := get(t, srv, "/trending?limit=1&status=confirmed")
	require.Equal(t, http.StatusOK, rec.Code)

	var result app.TrendingResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "arb", result.Entries[0].ProjectID)
	assert.False(t, result.Cached)

	rec = get(t, srv, "/trending?limit=1&status=confirmed")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Cached)
}

func TestClusteringEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testFake())

	rec := get(t, srv, "/wallet-clustering/"+testAddr)
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.ClusteringReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, testAddr, report.Address)
	assert.Equal(t, funderAddr, report.FundingTree.Root)
}

func TestWalletHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testFake())

	rec := get(t, srv, "/wallet-health/"+testAddr)
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, testAddr, report.Address)
	assert.GreaterOrEqual(t, report.HealthScore.Overall, 0)
	assert.LessOrEqual(t, report.HealthScore.Overall, 100)
}

func TestServiceHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testFake())

	rec := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t, testFake())

	rec := get(t, srv, "/no-such-route")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrendingFeed_FirstFrame(t *testing.T) {
	srv, _ := newTestServer(t, testFake())

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/trending"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var result app.TrendingResult
	require.NoError(t, conn.ReadJSON(&result))
	assert.NotEmpty(t, result.Entries)
}
