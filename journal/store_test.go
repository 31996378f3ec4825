package journal_test

import (
	"path/filepath"
	"testing"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/journal/journaltest"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreContract(t *testing.T) {
	t.Parallel()

	journaltest.RunStoreContract(t, func(t *testing.T) journal.Store {
		s, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemoryStoreContract(t *testing.T) {
	t.Parallel()

	journaltest.RunStoreContract(t, func(t *testing.T) journal.Store {
		return journal.NewMemory()
	})
}

func TestSQLiteInMemoryPath(t *testing.T) {
	t.Parallel()

	// A single connection keeps ":memory:" on one database.
	journaltest.RunStoreContract(t, func(t *testing.T) journal.Store {
		s, err := journal.NewSQLite(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
