package plugins

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/trackauction/config"
	"github.com/kilianp07/trackauction/core/auction/ledger"
)

func TestLedgerStoresRegistered(t *testing.T) {
	assert.Equal(t, []string{"jsonl", "jsonl_rotating", "none", "sqlite"}, LedgerStores())
}

func TestNewLedgerStore(t *testing.T) {
	dir := t.TempDir()
	cases := []config.LedgerConfig{
		{Backend: config.LedgerJSONL, Path: filepath.Join(dir, "a.jsonl")},
		{Backend: config.LedgerJSONLRotating, Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 1, MaxBackups: 2},
		{Backend: config.LedgerSQLite, Path: filepath.Join(dir, "c.db")},
	}
	for _, lc := range cases {
		t.Run(lc.Backend, func(t *testing.T) {
			s, err := NewLedgerStore(lc)
			require.NoError(t, err)
			defer s.Close()

			rec := ledger.Record{ID: "x", Timestamp: time.Unix(100, 0).UTC(), Strategy: "exact", Exact: true}
			require.NoError(t, s.Append(context.Background(), rec))
			got, err := s.Query(context.Background(), ledger.Query{})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "x", got[0].ID)
		})
	}
}

func TestNewLedgerStoreNone(t *testing.T) {
	s, err := NewLedgerStore(config.LedgerConfig{Backend: config.LedgerNone})
	require.NoError(t, err)
	assert.IsType(t, ledger.NopStore{}, s)
}

func TestNewLedgerStoreUnknown(t *testing.T) {
	_, err := NewLedgerStore(config.LedgerConfig{Backend: "postgres", Path: "x"})
	assert.Error(t, err)
}

func TestRegisterLedgerStoreDuplicate(t *testing.T) {
	err := RegisterLedgerStore(config.LedgerJSONL, func(map[string]any) (ledger.Store, error) { return ledger.NopStore{}, nil })
	assert.Error(t, err)
}
