package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletiq/internal/domain"
)

const registryYAML = `
projects:
  - id: arb
    name: Arbitrum
    status: confirmed
    chains: [ethereum, arbitrum]
    estimated_value: 2000
    snapshot_date: 2025-03-01T00:00:00Z
    criteria:
      - type: tx_count_min
        min_count: 5
        weight: 2
      - type: balance_min
        token: USDC
        min_balance: "1000000"
  - id: blast
    name: Blast
    status: rumored
    chains: [ethereum]
    estimated_value: 900
    snapshot_date: 2025-05-01T00:00:00Z
`

func writeRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "projects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFile_LoadsProjects(t *testing.T) {
	source, err := NewFile(writeRegistry(t, registryYAML))
	require.NoError(t, err)

	projects, err := source.Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	arb := projects[0]
	assert.Equal(t, "arb", arb.ID)
	assert.Equal(t, domain.StatusConfirmed, arb.Status)
	require.Len(t, arb.Criteria, 2)
	assert.Equal(t, domain.CriterionTxCountMin, arb.Criteria[0].Type)
	assert.EqualValues(t, 5, arb.Criteria[0].MinCount)
	assert.Equal(t, 2.0, arb.Criteria[0].Weight)
	assert.Equal(t, domain.Amount("1000000"), arb.Criteria[1].MinBalance)
}

func TestFile_RejectsInvalidRegistry(t *testing.T) {
	cases := map[string]string{
		"duplicate ids": `
projects:
  - {id: a, name: A, status: confirmed}
  - {id: a, name: A2, status: confirmed}
`,
		"unknown status": `
projects:
  - {id: a, name: A, status: imaginary}
`,
		"negative weight": `
projects:
  - id: a
    name: A
    status: confirmed
    criteria:
      - {type: tx_count_min, weight: -1}
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewFile(writeRegistry(t, content))
			assert.Error(t, err)
		})
	}
}

func TestPostgres_Projects(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	snapshot := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "status", "chains", "estimated_value", "snapshot_date", "criteria"}).
		AddRow("arb", "Arbitrum", "confirmed", pq.StringArray{"ethereum"}, 2000.0, snapshot,
			[]byte(`[{"type":"tx_count_min","min_count":5}]`))
	mock.ExpectQuery(`SELECT id, name, status, chains, estimated_value, snapshot_date, criteria\s+FROM projects`).
		WillReturnRows(rows)

	source := NewPostgres(db, time.Second)
	projects, err := source.Projects(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "arb", projects[0].ID)
	assert.Equal(t, []string{"ethereum"}, projects[0].Chains)
	require.Len(t, projects[0].Criteria, 1)
	assert.EqualValues(t, 5, projects[0].Criteria[0].MinCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
