package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/qa"
)

type fakeCatalogStore struct {
	rules map[string]qa.Rule
	err   error
}

func (f *fakeCatalogStore) Rules(context.Context) (map[string]qa.Rule, error) {
	return f.rules, f.err
}

func (f *fakeCatalogStore) IgnoredCodes(context.Context, string, string) (map[string]bool, error) {
	return nil, nil
}

func (f *fakeCatalogStore) EnabledOptionalCodes(context.Context, string) (map[string]bool, error) {
	return nil, nil
}

func TestCatalog_SeverityFallback(t *testing.T) {
	t.Parallel()
	c := New(map[string]qa.Rule{
		"H1_MULTIPLE": {Code: "H1_MULTIPLE", Severity: qa.SeverityHigh, Name: "Multiple H1 headings"},
		"NO_SEVERITY": {Code: "NO_SEVERITY"},
	})

	require.Equal(t, qa.SeverityHigh, c.Severity("H1_MULTIPLE", qa.SeverityCritical))
	require.Equal(t, qa.SeverityCritical, c.Severity("UNKNOWN_CODE", qa.SeverityCritical))
	require.Equal(t, qa.SeverityLow, c.Severity("NO_SEVERITY", qa.SeverityLow))
}

func TestCatalog_DisplayName(t *testing.T) {
	t.Parallel()
	c := New(map[string]qa.Rule{
		"VIEWPORT_MISSING": {Code: "VIEWPORT_MISSING", Name: "Viewport meta tag missing"},
	})

	require.Equal(t, "Viewport meta tag missing", c.DisplayName("VIEWPORT_MISSING", "fallback"))
	require.Equal(t, "fallback", c.DisplayName("UNKNOWN_CODE", "fallback"))
}

func TestLoad(t *testing.T) {
	t.Parallel()
	store := &fakeCatalogStore{rules: map[string]qa.Rule{
		"CANONICAL_MISSING": {Code: "CANONICAL_MISSING", Severity: qa.SeverityCritical},
	}}
	c, err := Load(context.Background(), store)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	r, ok := c.Rule("CANONICAL_MISSING")
	require.True(t, ok)
	require.Equal(t, qa.SeverityCritical, r.Severity)
}

func TestLoad_Error(t *testing.T) {
	t.Parallel()
	store := &fakeCatalogStore{err: errors.New("db down")}
	_, err := Load(context.Background(), store)
	require.ErrorContains(t, err, "load rule catalog")
}
