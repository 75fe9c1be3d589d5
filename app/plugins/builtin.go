package plugins

import (
	"github.com/kilianp07/trackauction/config"
	"github.com/kilianp07/trackauction/core/auction/ledger"
	"github.com/kilianp07/trackauction/core/factory"
)

func decode(conf map[string]any) (config.LedgerConfig, error) {
	var lc config.LedgerConfig
	err := factory.Decode(conf, &lc)
	return lc, err
}

func init() {
	_ = RegisterLedgerStore(config.LedgerNone, func(map[string]any) (ledger.Store, error) {
		return ledger.NopStore{}, nil
	})
	_ = RegisterLedgerStore(config.LedgerJSONL, func(conf map[string]any) (ledger.Store, error) {
		lc, err := decode(conf)
		if err != nil {
			return nil, err
		}
		return ledger.NewJSONLStore(lc.Path)
	})
	_ = RegisterLedgerStore(config.LedgerJSONLRotating, func(conf map[string]any) (ledger.Store, error) {
		lc, err := decode(conf)
		if err != nil {
			return nil, err
		}
		return ledger.NewRotatingJSONLStore(lc.Path, lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays)
	})
	_ = RegisterLedgerStore(config.LedgerSQLite, func(conf map[string]any) (ledger.Store, error) {
		lc, err := decode(conf)
		if err != nil {
			return nil, err
		}
		return ledger.NewSQLiteStore(lc.Path)
	})
}
