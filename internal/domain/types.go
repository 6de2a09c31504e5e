package domain

import (
	"time"
)

// ProjectStatus describes the confidence level of an airdrop project entry.
type ProjectStatus string

const (
	StatusConfirmed   ProjectStatus = "confirmed"
	StatusRumored     ProjectStatus = "rumored"
	StatusSpeculative ProjectStatus = "speculative"
	StatusExpired     ProjectStatus = "expired"
)

// CriterionType identifies the rule a criterion applies to a wallet profile.
type CriterionType string

const (
	CriterionTxCountMin          CriterionType = "tx_count_min"
	CriterionProtocolInteraction CriterionType = "protocol_interaction"
	CriterionBalanceMin          CriterionType = "balance_min"
	CriterionNFTHolding          CriterionType = "nft_holding"
	CriterionFirstActivityBefore CriterionType = "first_activity_before"
)

// ChainActivity summarizes one chain's worth of activity for a wallet.
// Degraded is set when the upstream source for this chain failed and the
// profile was built from partial data.
type ChainActivity struct {
	ChainID       string            `json:"chain_id"`
	TxCount       int64             `json:"tx_count"`
	FirstActivity time.Time         `json:"first_activity"`
	LastActivity  time.Time         `json:"last_activity"`
	Balances      map[string]Amount `json:"balances"`
	Protocols     []string          `json:"protocols"`
	Degraded      bool              `json:"degraded"`
}

// WalletProfile is the canonical, per-request summary of an address's
// on-chain activity. Built once per analysis request and never mutated
// after construction.
type WalletProfile struct {
	Address string                   `json:"address"`
	Chains  map[string]ChainActivity `json:"chains"`
}

// TxCount returns the transaction count summed across all chains.
func (p *WalletProfile) TxCount() int64 {
	var total int64
	for _, c := range p.Chains {
		total += c.TxCount
	}
	return total
}

// Protocols returns the union of interacted protocols across chains,
// sorted ascending.
func (p *WalletProfile) Protocols() []string {
	seen := make(map[string]struct{})
	for _, c := range p.Chains {
		for _, proto := range c.Protocols {
			seen[proto] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Balance returns the aggregate balance of a token across chains.
func (p *WalletProfile) Balance(token string) Amount {
	total := Zero
	for _, c := range p.Chains {
		if b, ok := c.Balances[token]; ok {
			total = total.Add(b)
		}
	}
	return total
}

// FirstActivity returns the earliest activity timestamp across chains,
// zero when the profile has no recorded activity.
func (p *WalletProfile) FirstActivity() time.Time {
	var first time.Time
	for _, c := range p.Chains {
		if c.FirstActivity.IsZero() {
			continue
		}
		if first.IsZero() || c.FirstActivity.Before(first) {
			first = c.FirstActivity
		}
	}
	return first
}

// LastActivity returns the latest activity timestamp across chains.
func (p *WalletProfile) LastActivity() time.Time {
	var last time.Time
	for _, c := range p.Chains {
		if c.LastActivity.After(last) {
			last = c.LastActivity
		}
	}
	return last
}

// Degraded reports whether any chain source failed during profile build.
func (p *WalletProfile) Degraded() bool {
	for _, c := range p.Chains {
		if c.Degraded {
			return true
		}
	}
	return false
}

// Criterion is a single eligibility rule. Only the fields relevant to its
// Type are populated. Weight 0 means unspecified and defaults to 1 during
// aggregation.
type Criterion struct {
	Type       CriterionType `json:"type" yaml:"type"`
	Weight     float64       `json:"weight,omitempty" yaml:"weight,omitempty"`
	MinCount   int64         `json:"min_count,omitempty" yaml:"min_count,omitempty"`
	Protocols  []string      `json:"protocols,omitempty" yaml:"protocols,omitempty"`
	Token      string        `json:"token,omitempty" yaml:"token,omitempty"`
	MinBalance Amount        `json:"min_balance,omitempty" yaml:"min_balance,omitempty"`
	Collection string        `json:"collection,omitempty" yaml:"collection,omitempty"`
	Before     time.Time     `json:"before,omitempty" yaml:"before,omitempty"`
}

// Project is one entry of the airdrop project registry.
type Project struct {
	ID             string        `json:"id" yaml:"id"`
	Name           string        `json:"name" yaml:"name"`
	Status         ProjectStatus `json:"status" yaml:"status"`
	Chains         []string      `json:"chains" yaml:"chains"`
	EstimatedValue float64       `json:"estimated_value" yaml:"estimated_value"`
	SnapshotDate   time.Time     `json:"snapshot_date" yaml:"snapshot_date"`
	Criteria       []Criterion   `json:"criteria" yaml:"criteria"`
}

// CriterionResult is the outcome of evaluating one criterion against a
// profile. Reason is set when the criterion could not be evaluated, e.g.
// "unsupported_criterion".
type CriterionResult struct {
	Type          CriterionType `json:"type"`
	Met           bool          `json:"met"`
	ObservedValue string        `json:"observed_value,omitempty"`
	Reason        string        `json:"reason,omitempty"`
}

// ProjectScore is the scored outcome for one project.
type ProjectScore struct {
	ProjectID       string            `json:"project_id"`
	ProjectName     string            `json:"project"`
	Status          ProjectStatus     `json:"status"`
	Score           int               `json:"score"`
	MatchedCriteria int               `json:"matched_criteria"`
	TotalCriteria   int               `json:"total_criteria"`
	Criteria        []CriterionResult `json:"criteria"`
}

// EligibilityReport is the result of the eligibility operation.
type EligibilityReport struct {
	Address       string         `json:"address"`
	OverallScore  int            `json:"overall_score"`
	ProjectScores []ProjectScore `json:"airdrops"`
	Degraded      bool           `json:"degraded,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// TrendingEntry is one ranked project in the trending list.
type TrendingEntry struct {
	ProjectID      string        `json:"project_id"`
	Name           string        `json:"name"`
	Status         ProjectStatus `json:"status"`
	TrendingScore  float64       `json:"trending_score"`
	Rank           int           `json:"rank"`
	EstimatedValue float64       `json:"estimated_value"`
}

// TransferEdge is a raw directed funding edge between two wallets,
// aggregated over the lookback window.
type TransferEdge struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Value     Amount    `json:"value"`
	TxCount   int64     `json:"tx_count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// WalletNode is one node of a funding tree. Parent is a relation only;
// the tree arena owns all nodes.
type WalletNode struct {
	Address  string `json:"address"`
	Parent   string `json:"parent,omitempty"`
	Depth    int    `json:"depth"`
	Received Amount `json:"received"`
	Sent     Amount `json:"sent"`
}

// FundingTree is an acyclic, single-parent reconstruction of which wallets
// funded which, rooted at a detected source.
type FundingTree struct {
	Root  string       `json:"root"`
	Nodes []WalletNode `json:"nodes"`
}

// Cluster is a set of wallets connected by qualifying funding edges.
type Cluster struct {
	ID      string   `json:"id"`
	Members []string `json:"members"`
}

// RelatedWallet is a wallet within hop range of the queried address.
type RelatedWallet struct {
	Address string `json:"address"`
	Hops    int    `json:"hops"`
	Volume  Amount `json:"volume"`
}

// ClusteringReport is the result of the wallet-clustering operation.
type ClusteringReport struct {
	Address        string          `json:"address"`
	RelatedWallets []RelatedWallet `json:"related_wallets"`
	Clusters       []Cluster       `json:"clusters"`
	FundingTree    FundingTree     `json:"funding_tree"`
}

// HealthMetric is one scored behavioral dimension of a wallet.
type HealthMetric struct {
	Name    string  `json:"name"`
	Score   int     `json:"score"`
	Weight  float64 `json:"weight"`
	Details string  `json:"details,omitempty"`
}

// Recommendation is a templated improvement hint derived from a
// low-scoring health metric.
type Recommendation struct {
	Metric  string `json:"metric"`
	Message string `json:"message"`
}

// HealthScore is the composite wallet health result.
type HealthScore struct {
	Overall int            `json:"overall"`
	Metrics []HealthMetric `json:"metrics"`
}

// HealthReport is the result of the wallet-health operation.
type HealthReport struct {
	Address         string           `json:"address"`
	HealthScore     HealthScore      `json:"health_score"`
	Recommendations []Recommendation `json:"recommendations"`
}
