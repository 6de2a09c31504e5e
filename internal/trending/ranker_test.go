package trending

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletiq/internal/domain"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func registry() []domain.Project {
	return []domain.Project{
		{ID: "arb", Name: "Arbitrum", Status: domain.StatusConfirmed, Chains: []string{"ethereum", "arbitrum"}, EstimatedValue: 2000, SnapshotDate: now.AddDate(0, 0, -3)},
		{ID: "blast", Name: "Blast", Status: domain.StatusRumored, Chains: []string{"ethereum"}, EstimatedValue: 900, SnapshotDate: now.AddDate(0, 0, -10)},
		{ID: "linea", Name: "Linea", Status: domain.StatusConfirmed, Chains: []string{"linea"}, EstimatedValue: 1500, SnapshotDate: now.AddDate(0, 0, -1)},
		{ID: "moon", Name: "Moonshot", Status: domain.StatusSpeculative, Chains: []string{"base"}, EstimatedValue: 50, SnapshotDate: now.AddDate(0, 0, -60)},
		{ID: "old", Name: "OldDrop", Status: domain.StatusExpired, Chains: []string{"ethereum"}, EstimatedValue: 3000, SnapshotDate: now.AddDate(0, -6, 0)},
	}
}

func TestRank_SortedDescendingWithTiebreak(t *testing.T) {
	entries := Rank(registry(), Query{}, now)
	require.NotEmpty(t, entries)

	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if prev.TrendingScore == cur.TrendingScore {
			assert.Less(t, prev.ProjectID, cur.ProjectID, "ties must break by ascending project id")
		} else {
			assert.Greater(t, prev.TrendingScore, cur.TrendingScore)
		}
		assert.Equal(t, i+1, cur.Rank)
	}
	assert.Equal(t, 1, entries[0].Rank)
}

func TestRank_ExpiredExcludedByDefault(t *testing.T) {
	entries := Rank(registry(), Query{}, now)
	for _, e := range entries {
		assert.NotEqual(t, domain.StatusExpired, e.Status)
	}

	// Expired projects surface only when explicitly requested.
	entries = Rank(registry(), Query{Statuses: []domain.ProjectStatus{domain.StatusExpired}}, now)
	require.Len(t, entries, 1)
	assert.Equal(t, "old", entries[0].ProjectID)
}

func TestRank_ConfirmedFilterWithLimit(t *testing.T) {
	entries := Rank(registry(), Query{
		Statuses: []domain.ProjectStatus{domain.StatusConfirmed},
		Limit:    5,
	}, now)

	assert.LessOrEqual(t, len(entries), 5)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, domain.StatusConfirmed, e.Status)
	}
}

func TestRank_ChainFilter(t *testing.T) {
	entries := Rank(registry(), Query{Chain: "ethereum"}, now)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEqual(t, "linea", e.ProjectID)
		assert.NotEqual(t, "moon", e.ProjectID)
	}
}

func TestRank_LimitClampedNeverRejected(t *testing.T) {
	// Build a registry larger than the max limit.
	var projects []domain.Project
	for i := 0; i < 15; i++ {
		projects = append(projects, domain.Project{
			ID:             fmt.Sprintf("p%02d", i),
			Status:         domain.StatusConfirmed,
			EstimatedValue: float64(100 + i),
			SnapshotDate:   now.AddDate(0, 0, -i),
		})
	}

	for _, limit := range []int{-5, 0, 1, 5, 10, 100} {
		entries := Rank(projects, Query{Limit: limit}, now)
		assert.GreaterOrEqual(t, len(entries), MinLimit, "limit %d", limit)
		assert.LessOrEqual(t, len(entries), MaxLimit, "limit %d", limit)
	}
}

func TestRank_EmptyFilteredSet(t *testing.T) {
	entries := Rank(registry(), Query{Chain: "solana"}, now)
	assert.Empty(t, entries)
}

func TestStatusWeights(t *testing.T) {
	assert.Equal(t, 1.0, statusWeight(domain.StatusConfirmed))
	assert.Equal(t, 0.6, statusWeight(domain.StatusRumored))
	assert.Equal(t, 0.3, statusWeight(domain.StatusSpeculative))
	assert.Equal(t, 0.0, statusWeight(domain.StatusExpired))
}

func TestRecencyDecay(t *testing.T) {
	fresh := recencyDecay(now, now)
	monthOld := recencyDecay(now.AddDate(0, 0, -30), now)
	ancient := recencyDecay(now.AddDate(-1, 0, 0), now)

	assert.InDelta(t, 1.0, fresh, 1e-9)
	assert.InDelta(t, 0.3679, monthOld, 0.001)
	assert.Greater(t, monthOld, ancient)
}
