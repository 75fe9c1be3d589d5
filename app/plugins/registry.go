// Package plugins registers the built-in ledger stores and builds them from
// configuration.
package plugins

import (
	"github.com/kilianp07/trackauction/config"
	"github.com/kilianp07/trackauction/core/auction/ledger"
	"github.com/kilianp07/trackauction/core/factory"
)

var ledgerStores = factory.NewRegistry[ledger.Store]()

// RegisterLedgerStore adds a ledger store factory identified by name.
func RegisterLedgerStore(name string, f factory.Factory[ledger.Store]) error {
	return ledgerStores.Register(name, f)
}

// LedgerStores lists the registered backends.
func LedgerStores() []string { return ledgerStores.Names() }

// NewLedgerStore creates the store selected by cfg.Backend.
func NewLedgerStore(cfg config.LedgerConfig) (ledger.Store, error) {
	return ledgerStores.Create(factory.ModuleConfig{Type: cfg.Backend, Conf: cfg.Module()})
}
