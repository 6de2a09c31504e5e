package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"walletiq/internal/domain"
)

// Postgres is a Source reading the projects table of a shared registry
// database. Criteria are stored as a JSONB column.
type Postgres struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sqlx.DB, timeout time.Duration) *Postgres {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Postgres{db: db, timeout: timeout}
}

// Open connects to the registry database.
func Open(dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	return NewPostgres(db, 5*time.Second), nil
}

type projectRow struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Status         string         `db:"status"`
	Chains         pq.StringArray `db:"chains"`
	EstimatedValue float64        `db:"estimated_value"`
	SnapshotDate   time.Time      `db:"snapshot_date"`
	Criteria       []byte         `db:"criteria"`
}

// Projects implements Source.
func (p *Postgres) Projects(ctx context.Context) ([]domain.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	query := `
		SELECT id, name, status, chains, estimated_value, snapshot_date, criteria
		FROM projects
		ORDER BY id`

	var rows []projectRow
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}

	projects := make([]domain.Project, 0, len(rows))
	for _, row := range rows {
		var criteria []domain.Criterion
		if len(row.Criteria) > 0 {
			if err := json.Unmarshal(row.Criteria, &criteria); err != nil {
				return nil, fmt.Errorf("project %s: decode criteria: %w", row.ID, err)
			}
		}
		projects = append(projects, domain.Project{
			ID:             row.ID,
			Name:           row.Name,
			Status:         domain.ProjectStatus(row.Status),
			Chains:         []string(row.Chains),
			EstimatedValue: row.EstimatedValue,
			SnapshotDate:   row.SnapshotDate,
			Criteria:       criteria,
		})
	}
	if err := validate(projects); err != nil {
		return nil, err
	}
	return projects, nil
}
