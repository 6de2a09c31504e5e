// Package normalize converts heterogeneous raw chain activity into one
// canonical WalletProfile per request.
package normalize

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"walletiq/internal/domain"
	"walletiq/internal/metrics"
	"walletiq/internal/provider"
)

// maxTxPages bounds the pagination walk per chain so one hostile or
// misbehaving source cannot stall a request.
const maxTxPages = 50

// Normalizer builds WalletProfiles from the chain-data collaborator.
type Normalizer struct {
	source  provider.ChainData
	chains  []string
	metrics *metrics.Registry
}

// New creates a normalizer over the given chain set. The chain list is
// sorted once so merge order is deterministic regardless of input order.
func New(source provider.ChainData, chains []string, m *metrics.Registry) *Normalizer {
	sorted := append([]string(nil), chains...)
	sort.Strings(sorted)
	return &Normalizer{source: source, chains: sorted, metrics: m}
}

// Build fetches and merges per-chain activity for an address into one
// profile. Each chain is fetched concurrently; a failed source marks its
// chain degraded and the build continues. Only when every source fails
// does Build return UpstreamUnavailable.
func (n *Normalizer) Build(ctx context.Context, address string) (*domain.WalletProfile, error) {
	profile := &domain.WalletProfile{
		Address: address,
		Chains:  make(map[string]domain.ChainActivity, len(n.chains)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(n.chains))

	for _, chain := range n.chains {
		chain := chain
		g.Go(func() error {
			activity := n.buildChain(gctx, chain, address)
			mu.Lock()
			profile.Chains[chain] = activity
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; per-source failures degrade instead.
	_ = g.Wait()

	failed := 0
	var failedChains []string
	for _, chain := range n.chains {
		if profile.Chains[chain].Degraded {
			failed++
			failedChains = append(failedChains, chain)
		}
	}
	if len(n.chains) > 0 && failed == len(n.chains) {
		return nil, &domain.UpstreamUnavailable{Sources: failedChains}
	}
	if failed > 0 {
		if n.metrics != nil {
			n.metrics.DegradedProfiles.Inc()
		}
		log.Warn().
			Str("address", address).
			Strs("chains", failedChains).
			Msg("profile built with degraded sources")
	}
	return profile, nil
}

// buildChain assembles one chain's activity. Any source failure flips the
// degraded flag and returns whatever was collected so far.
func (n *Normalizer) buildChain(ctx context.Context, chain, address string) domain.ChainActivity {
	activity := domain.ChainActivity{
		ChainID:  chain,
		Balances: make(map[string]domain.Amount),
	}

	txs, err := n.fetchTransactions(ctx, chain, address)
	if err != nil {
		return n.degrade(activity, chain, address, err)
	}
	for _, tx := range txs {
		activity.TxCount++
		if activity.FirstActivity.IsZero() || tx.Timestamp.Before(activity.FirstActivity) {
			activity.FirstActivity = tx.Timestamp
		}
		if tx.Timestamp.After(activity.LastActivity) {
			activity.LastActivity = tx.Timestamp
		}
	}

	balances, err := n.source.Balances(ctx, chain, address)
	if err != nil {
		return n.degrade(activity, chain, address, err)
	}
	for _, b := range balances {
		if b.Token == "" || !b.Balance.Valid() {
			continue
		}
		activity.Balances[b.Token] = activity.Balances[b.Token].Add(b.Balance)
	}

	protocols, err := n.source.Interactions(ctx, chain, address)
	if err != nil {
		return n.degrade(activity, chain, address, err)
	}
	activity.Protocols = dedupeSorted(protocols)

	return activity
}

// fetchTransactions walks the paginated transaction feed and dedupes by
// hash across pages, since upstream pages can overlap.
func (n *Normalizer) fetchTransactions(ctx context.Context, chain, address string) ([]provider.RawTransaction, error) {
	seen := make(map[string]struct{})
	var txs []provider.RawTransaction

	cursor := ""
	for page := 0; page < maxTxPages; page++ {
		result, err := n.source.Transactions(ctx, chain, address, cursor)
		if err != nil {
			return nil, err
		}
		for _, tx := range result.Transactions {
			if _, dup := seen[tx.Hash]; dup {
				continue
			}
			seen[tx.Hash] = struct{}{}
			txs = append(txs, tx)
		}
		if result.NextCursor == "" {
			break
		}
		cursor = result.NextCursor
	}
	return txs, nil
}

func (n *Normalizer) degrade(activity domain.ChainActivity, chain, address string, err error) domain.ChainActivity {
	if n.metrics != nil {
		n.metrics.UpstreamFailures.WithLabelValues(chain).Inc()
	}
	log.Warn().
		Err(err).
		Str("chain", chain).
		Str("address", address).
		Msg("chain source failed, continuing degraded")
	activity.Degraded = true
	return activity
}

func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
