package registry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"walletiq/internal/domain"
)

// fileFormat is the YAML registry document shape.
type fileFormat struct {
	Projects []domain.Project `yaml:"projects"`
}

// File is a Source backed by a YAML registry file, loaded once at
// construction; the registry changes rarely enough that a restart on
// edit is acceptable.
type File struct {
	projects []domain.Project
}

// NewFile loads and validates a YAML project registry.
func NewFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	var doc fileFormat
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if err := validate(doc.Projects); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return &File{projects: doc.Projects}, nil
}

// Projects implements Source.
func (f *File) Projects(ctx context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, len(f.projects))
	copy(out, f.projects)
	return out, nil
}

func validate(projects []domain.Project) error {
	seen := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if p.ID == "" {
			return fmt.Errorf("project with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate project id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
		switch p.Status {
		case domain.StatusConfirmed, domain.StatusRumored, domain.StatusSpeculative, domain.StatusExpired:
		default:
			return fmt.Errorf("project %s: unknown status %q", p.ID, p.Status)
		}
		for _, c := range p.Criteria {
			if c.Weight < 0 {
				return fmt.Errorf("project %s: negative criterion weight", p.ID)
			}
		}
	}
	return nil
}
