// Package modkit builds API modules: every module gets the shared Deps, is
// configured with Options and mounts itself under its prefix
package modkit

import (
	"wlmerge/internal/modkit/module"
	"wlmerge/internal/modkit/repokit"
	"wlmerge/internal/platform/config"
	"wlmerge/internal/platform/logger"
	"wlmerge/internal/platform/store"
)

// Module is the contract every API module implements
type Module = module.Module

// Deps are the process wide dependencies handed to every module. PG and CH
// are nil when the store is disabled
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}
