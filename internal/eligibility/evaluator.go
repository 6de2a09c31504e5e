// Package eligibility evaluates project criteria against wallet profiles
// and aggregates the results into project and overall scores.
package eligibility

import (
	"fmt"
	"strconv"
	"strings"

	"walletiq/internal/domain"
)

// ReasonUnsupported marks a criterion type the evaluator does not know.
const ReasonUnsupported = "unsupported_criterion"

// Evaluate runs every criterion against the profile. It performs no I/O
// and is a pure function of its two inputs. An unknown criterion type
// yields met=false with a reason instead of aborting the rest.
func Evaluate(profile *domain.WalletProfile, criteria []domain.Criterion) []domain.CriterionResult {
	results := make([]domain.CriterionResult, 0, len(criteria))
	for _, c := range criteria {
		results = append(results, evaluateOne(profile, c))
	}
	return results
}

func evaluateOne(profile *domain.WalletProfile, c domain.Criterion) domain.CriterionResult {
	result := domain.CriterionResult{Type: c.Type}

	switch c.Type {
	case domain.CriterionTxCountMin:
		count := profile.TxCount()
		result.Met = count >= c.MinCount
		result.ObservedValue = strconv.FormatInt(count, 10)

	case domain.CriterionProtocolInteraction:
		matched := intersect(profile.Protocols(), c.Protocols)
		result.Met = len(matched) > 0
		result.ObservedValue = strings.Join(matched, ",")

	case domain.CriterionBalanceMin:
		balance := profile.Balance(c.Token)
		result.Met = balance.Cmp(c.MinBalance) >= 0
		result.ObservedValue = string(balance)

	case domain.CriterionNFTHolding:
		held := profile.Balance(c.Collection)
		result.Met = !held.IsZero()
		result.ObservedValue = string(held)

	case domain.CriterionFirstActivityBefore:
		first := profile.FirstActivity()
		result.Met = !first.IsZero() && first.Before(c.Before)
		if !first.IsZero() {
			result.ObservedValue = first.UTC().Format("2006-01-02")
		}

	default:
		result.Met = false
		result.Reason = ReasonUnsupported
	}
	return result
}

// intersect returns the sorted members of a present in b.
func intersect(a, b []string) []string {
	want := make(map[string]struct{}, len(b))
	for _, v := range b {
		want[strings.ToLower(v)] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := want[strings.ToLower(v)]; ok {
			out = append(out, v)
		}
	}
	return out
}

// criterionWeight applies the default weight of 1 for unspecified
// weights. Negative weights are invalid and surface as a computation
// error in the aggregator.
func criterionWeight(c domain.Criterion) (float64, error) {
	if c.Weight < 0 {
		return 0, &domain.ComputationError{
			Op:     "aggregate",
			Reason: fmt.Sprintf("negative criterion weight %v", c.Weight),
		}
	}
	if c.Weight == 0 {
		return 1, nil
	}
	return c.Weight, nil
}
