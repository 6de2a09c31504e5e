package provider

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"walletiq/internal/domain"
)

// Fake is an in-memory ChainData used by tests and offline runs. Chains
// maps chain id to canned activity; FailChains lists chains whose calls
// return an error, simulating an upstream outage.
type Fake struct {
	mu         sync.Mutex
	Chains     map[string]FakeChain
	Edges      []domain.TransferEdge
	Approval   ApprovalReport
	Gas        GasStats
	Counterpts []string
	FailChains map[string]bool
	FailAll    bool
	// FailAux fails the cross-chain calls (transfers, approvals, gas,
	// counterparties) while per-chain activity keeps working.
	FailAux bool
}

// FakeChain is the canned per-chain activity of a Fake provider.
type FakeChain struct {
	Pages     []TxPage
	Balances  []TokenBalance
	Protocols []string
}

// NewFake returns an empty fake provider.
func NewFake() *Fake {
	return &Fake{
		Chains:     make(map[string]FakeChain),
		FailChains: make(map[string]bool),
	}
}

func (f *Fake) fail(chain string) error {
	if f.FailAll {
		return fmt.Errorf("fake provider: simulated outage")
	}
	if chain != "" && f.FailChains[chain] {
		return fmt.Errorf("fake provider: simulated outage on %s", chain)
	}
	if chain == "" && f.FailAux {
		return fmt.Errorf("fake provider: simulated aux outage")
	}
	return nil
}

// Transactions implements ChainData.
func (f *Fake) Transactions(ctx context.Context, chain, address, cursor string) (TxPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(chain); err != nil {
		return TxPage{}, err
	}
	pages := f.Chains[chain].Pages
	if len(pages) == 0 {
		return TxPage{}, nil
	}
	idx := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "page-%d", &idx)
	}
	if idx >= len(pages) {
		return TxPage{}, nil
	}
	page := pages[idx]
	if idx < len(pages)-1 {
		page.NextCursor = fmt.Sprintf("page-%d", idx+1)
	} else {
		page.NextCursor = ""
	}
	return page, nil
}

// Balances implements ChainData.
func (f *Fake) Balances(ctx context.Context, chain, address string) ([]TokenBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(chain); err != nil {
		return nil, err
	}
	return f.Chains[chain].Balances, nil
}

// Interactions implements ChainData.
func (f *Fake) Interactions(ctx context.Context, chain, address string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(chain); err != nil {
		return nil, err
	}
	return f.Chains[chain].Protocols, nil
}

// Transfers implements ChainData.
func (f *Fake) Transfers(ctx context.Context, address string, lookback time.Duration) ([]domain.TransferEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(""); err != nil {
		return nil, err
	}
	return f.Edges, nil
}

// Approvals implements ChainData.
func (f *Fake) Approvals(ctx context.Context, address string) (ApprovalReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(""); err != nil {
		return ApprovalReport{}, err
	}
	return f.Approval, nil
}

// GasStats implements ChainData.
func (f *Fake) GasStats(ctx context.Context, address string) (GasStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(""); err != nil {
		return GasStats{}, err
	}
	return f.Gas, nil
}

// Counterparties implements ChainData.
func (f *Fake) Counterparties(ctx context.Context, address string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(""); err != nil {
		return nil, err
	}
	return f.Counterpts, nil
}

// Counting wraps a ChainData and counts every call made through it, so
// tests can assert that validation failures reach zero collaborators and
// that single-flight caching collapses duplicate work.
type Counting struct {
	Inner ChainData
	calls atomic.Int64
}

// NewCounting wraps inner with a call counter.
func NewCounting(inner ChainData) *Counting {
	return &Counting{Inner: inner}
}

// Calls returns the number of collaborator calls made so far.
func (c *Counting) Calls() int64 { return c.calls.Load() }

func (c *Counting) Transactions(ctx context.Context, chain, address, cursor string) (TxPage, error) {
	c.calls.Add(1)
	return c.Inner.Transactions(ctx, chain, address, cursor)
}

func (c *Counting) Balances(ctx context.Context, chain, address string) ([]TokenBalance, error) {
	c.calls.Add(1)
	return c.Inner.Balances(ctx, chain, address)
}

func (c *Counting) Interactions(ctx context.Context, chain, address string) ([]string, error) {
	c.calls.Add(1)
	return c.Inner.Interactions(ctx, chain, address)
}

func (c *Counting) Transfers(ctx context.Context, address string, lookback time.Duration) ([]domain.TransferEdge, error) {
	c.calls.Add(1)
	return c.Inner.Transfers(ctx, address, lookback)
}

func (c *Counting) Approvals(ctx context.Context, address string) (ApprovalReport, error) {
	c.calls.Add(1)
	return c.Inner.Approvals(ctx, address)
}

func (c *Counting) GasStats(ctx context.Context, address string) (GasStats, error) {
	c.calls.Add(1)
	return c.Inner.GasStats(ctx, address)
}

func (c *Counting) Counterparties(ctx context.Context, address string) ([]string, error) {
	c.calls.Add(1)
	return c.Inner.Counterparties(ctx, address)
}
