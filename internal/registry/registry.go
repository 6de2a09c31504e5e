// Package registry supplies the airdrop project set the scoring and
// trending components evaluate against. Two sources exist: a YAML file
// for single-node deployments and a Postgres table for shared ones.
package registry

import (
	"context"

	"walletiq/internal/domain"
)

// Source yields the current project registry. Implementations return a
// fresh slice per call; callers own the result.
type Source interface {
	Projects(ctx context.Context) ([]domain.Project, error)
}

// Static is a fixed in-memory Source, used by tests and offline runs.
type Static struct {
	Entries []domain.Project
}

// Projects implements Source.
func (s *Static) Projects(ctx context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, len(s.Entries))
	copy(out, s.Entries)
	return out, nil
}
