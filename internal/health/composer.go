// Package health aggregates behavioral wallet metrics into a composite
// 0-100 score with templated recommendations.
package health

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"

	"walletiq/internal/domain"
	"walletiq/internal/provider"
)

const (
	// recencyWindowDays is where the activity-recency score bottoms out.
	recencyWindowDays = 90.0
	// diversificationTarget distinct protocols+tokens reach a full score.
	diversificationTarget = 20.0
	// diversityTarget distinct counterparties reach a full score.
	diversityTarget = 50.0

	maxRecommendations  = 5
	recommendationFloor = 50
)

// recommendationTemplates maps each metric to its improvement hint.
var recommendationTemplates = map[string]string{
	MetricActivityRecency:  "Wallet has been inactive recently; periodic activity keeps the wallet eligible for activity-based programs.",
	MetricDiversification:  "Activity is concentrated in few protocols and tokens; spreading interactions improves diversification.",
	MetricGasEfficiency:    "Average gas price paid is well above the network median; batching or off-peak submission would reduce overpayment.",
	MetricSecurityHygiene:  "Open token approvals or flagged-contract exposure detected; revoke unused approvals.",
	MetricNetworkDiversity: "Few distinct counterparties observed; broader interaction reduces clustering risk.",
}

// Inputs carries everything the composer needs beyond the profile.
type Inputs struct {
	Profile        *domain.WalletProfile
	Gas            provider.GasStats
	Approvals      provider.ApprovalReport
	Counterparties int
	Now            time.Time
}

// Composer computes composite health scores with a validated weight
// vector.
type Composer struct {
	weights Weights
}

// NewComposer validates the weight vector once; an invalid vector is a
// configuration error and no composer is returned.
func NewComposer(w Weights) (*Composer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Composer{weights: w}, nil
}

// Compose builds the health report for a wallet.
func (c *Composer) Compose(in Inputs) *domain.HealthReport {
	metrics := []domain.HealthMetric{
		c.activityRecency(in),
		c.diversification(in),
		c.gasEfficiency(in),
		c.securityHygiene(in),
		c.networkDiversity(in),
	}

	var total float64
	for _, m := range metrics {
		total += m.Weight * float64(m.Score)
	}
	// Weights sum to 1, so total is already the weighted average.

	return &domain.HealthReport{
		Address: in.Profile.Address,
		HealthScore: domain.HealthScore{
			Overall: clamp(math.Round(total)),
			Metrics: metrics,
		},
		Recommendations: recommend(metrics),
	}
}

func (c *Composer) activityRecency(in Inputs) domain.HealthMetric {
	last := in.Profile.LastActivity()
	score := 0
	details := "no recorded activity"
	if !last.IsZero() {
		days := in.Now.Sub(last).Hours() / 24
		if days < 0 {
			days = 0
		}
		score = clamp(100 * (1 - days/recencyWindowDays))
		details = fmt.Sprintf("last activity %.0f days ago", days)
	}
	return domain.HealthMetric{
		Name:    MetricActivityRecency,
		Score:   score,
		Weight:  c.weights.ActivityRecency,
		Details: details,
	}
}

func (c *Composer) diversification(in Inputs) domain.HealthMetric {
	protocols := len(in.Profile.Protocols())
	tokens := make(map[string]struct{})
	for _, chain := range in.Profile.Chains {
		for token := range chain.Balances {
			tokens[token] = struct{}{}
		}
	}
	distinct := protocols + len(tokens)
	return domain.HealthMetric{
		Name:    MetricDiversification,
		Score:   clamp(100 * float64(distinct) / diversificationTarget),
		Weight:  c.weights.Diversification,
		Details: fmt.Sprintf("%d protocols, %d tokens", protocols, len(tokens)),
	}
}

// gasEfficiency compares the wallet's average gas price to the network
// median. Ratio <= 1 scores 100; the score falls linearly to 0 at twice
// the median. With no data the metric stays neutral.
func (c *Composer) gasEfficiency(in Inputs) domain.HealthMetric {
	metric := domain.HealthMetric{
		Name:   MetricGasEfficiency,
		Weight: c.weights.GasEfficiency,
	}
	median := in.Gas.NetworkMedian.Int()
	avg := in.Gas.AvgGasPrice.Int()
	if median.Sign() == 0 || avg.Sign() == 0 {
		metric.Score = 50
		metric.Details = "insufficient gas data"
		return metric
	}

	ratio, _ := new(big.Rat).SetFrac(avg, median).Float64()
	if ratio <= 1 {
		metric.Score = 100
	} else {
		metric.Score = clamp(100 * (2 - ratio))
	}
	metric.Details = fmt.Sprintf("avg gas %.2fx network median", ratio)
	return metric
}

func (c *Composer) securityHygiene(in Inputs) domain.HealthMetric {
	score := 100 - 10*in.Approvals.OpenApprovals - 25*in.Approvals.FlaggedContracts
	return domain.HealthMetric{
		Name:   MetricSecurityHygiene,
		Score:  clamp(float64(score)),
		Weight: c.weights.SecurityHygiene,
		Details: fmt.Sprintf("%d open approvals, %d flagged contracts",
			in.Approvals.OpenApprovals, in.Approvals.FlaggedContracts),
	}
}

func (c *Composer) networkDiversity(in Inputs) domain.HealthMetric {
	return domain.HealthMetric{
		Name:    MetricNetworkDiversity,
		Score:   clamp(100 * float64(in.Counterparties) / diversityTarget),
		Weight:  c.weights.NetworkDiversity,
		Details: fmt.Sprintf("%d distinct counterparties", in.Counterparties),
	}
}

// recommend emits one templated recommendation per metric scoring below
// 50, ranked by severity (50 - score) descending, capped at 5.
func recommend(metrics []domain.HealthMetric) []domain.Recommendation {
	var low []domain.HealthMetric
	for _, m := range metrics {
		if m.Score < recommendationFloor {
			low = append(low, m)
		}
	}
	sort.Slice(low, func(i, j int) bool {
		if low[i].Score != low[j].Score {
			return low[i].Score < low[j].Score
		}
		return low[i].Name < low[j].Name
	})
	if len(low) > maxRecommendations {
		low = low[:maxRecommendations]
	}

	out := make([]domain.Recommendation, 0, len(low))
	for _, m := range low {
		out = append(out, domain.Recommendation{
			Metric:  m.Name,
			Message: recommendationTemplates[m.Name],
		})
	}
	return out
}

func clamp(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
