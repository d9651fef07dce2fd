package store

import (
	"context"
	"fmt"

	"github.com/proximodev/releasepass/internal/qa"
)

// Rules loads the whole rule catalog, keyed by code.
func (s *Store) Rules(ctx context.Context) (map[string]qa.Rule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT code, severity, name, description, impact, fix, COALESCE(doc_url, ''), category, optional
		FROM rules`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	rules := make(map[string]qa.Rule)
	for rows.Next() {
		var r qa.Rule
		if err := rows.Scan(&r.Code, &r.Severity, &r.Name, &r.Description,
			&r.Impact, &r.Fix, &r.DocURL, &r.Category, &r.Optional); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules[r.Code] = r
	}
	return rules, rows.Err()
}

// IgnoredCodes returns the codes suppressed for a project, both project-wide
// rows (null URL) and rows pinned to this exact URL.
func (s *Store) IgnoredCodes(ctx context.Context, projectID, url string) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT code FROM ignored_rules
		WHERE project_id = $1 AND (url IS NULL OR url = $2)`,
		projectID, url)
	if err != nil {
		return nil, fmt.Errorf("query ignored rules for %s: %w", projectID, err)
	}
	defer rows.Close()

	return scanCodeSet(rows)
}

// EnabledOptionalCodes returns the optional rule codes a project switched on.
func (s *Store) EnabledOptionalCodes(ctx context.Context, projectID string) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `
		SELECT code FROM project_optional_rules
		WHERE project_id = $1 AND enabled`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("query optional rules for %s: %w", projectID, err)
	}
	defer rows.Close()

	return scanCodeSet(rows)
}

func scanCodeSet(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) (map[string]bool, error) {
	codes := make(map[string]bool)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		codes[code] = true
	}
	return codes, rows.Err()
}
