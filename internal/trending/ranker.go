// Package trending ranks the project registry by a recency and value
// heuristic. The score is an ordering device only; it carries no
// probabilistic meaning.
package trending

import (
	"math"
	"sort"
	"time"

	"walletiq/internal/domain"
)

const (
	weightStatus  = 0.40
	weightValue   = 0.35
	weightRecency = 0.25

	// recencyHalfLifeDays controls the exponential decay of the
	// snapshot-date component.
	recencyDecayDays = 30.0

	MinLimit = 1
	MaxLimit = 10
)

// Query filters and bounds a trending request. A zero Limit means
// MaxLimit; out-of-range limits are clamped, never rejected.
type Query struct {
	Statuses []domain.ProjectStatus
	Chain    string
	Limit    int
}

// Rank filters the registry, scores each project, and returns the top
// entries sorted descending by trending score with ascending project id
// breaking ties. Expired projects are excluded unless the status filter
// asks for them.
func Rank(projects []domain.Project, q Query, now time.Time) []domain.TrendingEntry {
	limit := clampLimit(q.Limit)
	filtered := filter(projects, q)
	if len(filtered) == 0 {
		return []domain.TrendingEntry{}
	}

	maxValue := 0.0
	for _, p := range filtered {
		if p.EstimatedValue > maxValue {
			maxValue = p.EstimatedValue
		}
	}

	entries := make([]domain.TrendingEntry, 0, len(filtered))
	for _, p := range filtered {
		entries = append(entries, domain.TrendingEntry{
			ProjectID:      p.ID,
			Name:           p.Name,
			Status:         p.Status,
			TrendingScore:  score(p, maxValue, now),
			EstimatedValue: p.EstimatedValue,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TrendingScore != entries[j].TrendingScore {
			return entries[i].TrendingScore > entries[j].TrendingScore
		}
		return entries[i].ProjectID < entries[j].ProjectID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func score(p domain.Project, maxValue float64, now time.Time) float64 {
	return weightStatus*statusWeight(p.Status) +
		weightValue*normalizeValue(p.EstimatedValue, maxValue) +
		weightRecency*recencyDecay(p.SnapshotDate, now)
}

func statusWeight(s domain.ProjectStatus) float64 {
	switch s {
	case domain.StatusConfirmed:
		return 1.0
	case domain.StatusRumored:
		return 0.6
	case domain.StatusSpeculative:
		return 0.3
	default:
		return 0.0
	}
}

// normalizeValue scales linearly against the maximum estimated value in
// the filtered set.
func normalizeValue(v, max float64) float64 {
	if max <= 0 || v <= 0 {
		return 0
	}
	return v / max
}

func recencyDecay(snapshot, now time.Time) float64 {
	if snapshot.IsZero() || snapshot.After(now) {
		return 1.0
	}
	days := now.Sub(snapshot).Hours() / 24
	return math.Exp(-days / recencyDecayDays)
}

func filter(projects []domain.Project, q Query) []domain.Project {
	wanted := make(map[domain.ProjectStatus]struct{}, len(q.Statuses))
	for _, s := range q.Statuses {
		wanted[s] = struct{}{}
	}

	var out []domain.Project
	for _, p := range projects {
		if len(wanted) > 0 {
			if _, ok := wanted[p.Status]; !ok {
				continue
			}
		} else if p.Status == domain.StatusExpired {
			// Expired is opt-in via the status filter.
			continue
		}
		if q.Chain != "" && !hasChain(p, q.Chain) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasChain(p domain.Project, chain string) bool {
	for _, c := range p.Chains {
		if c == chain {
			return true
		}
	}
	return false
}

func clampLimit(limit int) int {
	if limit == 0 {
		return MaxLimit
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
