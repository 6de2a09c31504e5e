// Package provider defines the chain-data collaborator contract and its
// HTTP implementation. The engine never talks to a chain directly; it
// consumes this narrow, per-call-bounded interface.
package provider

import (
	"context"
	"time"

	"walletiq/internal/domain"
)

// RawTransaction is one transaction record as returned by the chain-data
// service, before normalization.
type RawTransaction struct {
	Hash      string        `json:"hash"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Value     domain.Amount `json:"value"`
	Timestamp time.Time     `json:"timestamp"`
}

// TxPage is one page of a paginated transaction query. NextCursor is
// empty on the last page.
type TxPage struct {
	Transactions []RawTransaction `json:"transactions"`
	NextCursor   string           `json:"next_cursor"`
}

// TokenBalance is a single token holding in integer minor units.
type TokenBalance struct {
	Token   string        `json:"token"`
	Balance domain.Amount `json:"balance"`
}

// ApprovalReport summarizes token approval exposure for an address.
type ApprovalReport struct {
	OpenApprovals    int `json:"open_approvals"`
	FlaggedContracts int `json:"flagged_contracts"`
}

// GasStats compares a wallet's average gas price to the network median.
type GasStats struct {
	AvgGasPrice   domain.Amount `json:"avg_gas_price"`
	NetworkMedian domain.Amount `json:"network_median"`
}

// ChainData is the chain-data provider contract. Every call is
// individually time-bounded; a failed call degrades its source rather
// than failing the whole analysis.
type ChainData interface {
	// Transactions returns one page of transactions for an address on a
	// chain. Pass an empty cursor for the first page.
	Transactions(ctx context.Context, chain, address, cursor string) (TxPage, error)

	// Balances returns the token balances for an address on a chain.
	Balances(ctx context.Context, chain, address string) ([]TokenBalance, error)

	// Interactions returns the protocols an address has interacted with
	// on a chain.
	Interactions(ctx context.Context, chain, address string) ([]string, error)

	// Transfers returns the aggregated funding edges touching an address
	// within the lookback window, across chains.
	Transfers(ctx context.Context, address string, lookback time.Duration) ([]domain.TransferEdge, error)

	// Approvals returns the approval exposure summary for an address.
	Approvals(ctx context.Context, address string) (ApprovalReport, error)

	// GasStats returns gas usage statistics for an address.
	GasStats(ctx context.Context, address string) (GasStats, error)

	// Counterparties returns the distinct counterparty addresses an
	// address has transacted with.
	Counterparties(ctx context.Context, address string) ([]string, error)
}
