package logging

import "testing"

func TestNewDevelopment(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	if err != nil {
		t.Fatalf("New(true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger built")
}

func TestNewProduction(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	if err != nil {
		t.Fatalf("New(false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger built")
}
