// Package extension provides the Forge extension adapter for the sale ledger.
//
// It implements the forge.Extension interface to integrate a tokensale
// Ledger into a Forge application with DI registration and lifecycle
// management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.tokensale" or
// "tokensale" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/tokensale"
	"github.com/xraph/tokensale/store"
	"github.com/xraph/tokensale/store/memory"
	"github.com/xraph/tokensale/store/mongo"
	"github.com/xraph/tokensale/store/postgres"
	"github.com/xraph/tokensale/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "tokensale"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Fixed-price, whitelist-gated token sale ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the sale ledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *tokensale.Ledger
	store      store.Store
	groveDB    *grove.DB
	ledgerOpts []tokensale.Option
}

// New creates a new tokensale Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *tokensale.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// builds the ledger and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.build(); err != nil {
		return err
	}

	return vessel.Provide(fapp.Container(), func() (*tokensale.Ledger, error) {
		return e.engine, nil
	})
}

// build resolves the store and constructs the engine from the resolved
// config.
func (e *Extension) build() error {
	if e.store == nil {
		s, err := buildStore(e.config.Driver, e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}
	e.engine = tokensale.New(e.store, opts...)
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("tokensale: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("tokensale: store not initialized")
	}
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.engine != nil && e.engine.Dirty() {
		return errors.New("tokensale: ledger state not persisted")
	}
	return nil
}

// buildStore picks the backend for driver.
func buildStore(driver string, db *grove.DB) (store.Store, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" || driver == DriverMemory {
		return memory.New(), nil
	}
	if db == nil {
		return nil, fmt.Errorf("tokensale: driver %q needs a grove database", driver)
	}
	switch driver {
	case DriverPostgres:
		return postgres.New(db), nil
	case DriverSQLite:
		return sqlite.New(db), nil
	case DriverMongo:
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("tokensale: unknown store driver %q", driver)
	}
}

// buildLedgerOpts constructs tokensale.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]tokensale.Option, error) {
	opts := make([]tokensale.Option, 0, len(e.ledgerOpts)+4)

	opts = append(opts, tokensale.WithAutoMigrate(!e.config.DisableMigrate))

	if e.config.Address != "" {
		if !common.IsHexAddress(e.config.Address) {
			return nil, fmt.Errorf("tokensale: invalid address %q", e.config.Address)
		}
		opts = append(opts, tokensale.WithAddress(common.HexToAddress(e.config.Address)))
	}
	if e.config.Owner != "" {
		if !common.IsHexAddress(e.config.Owner) {
			return nil, fmt.Errorf("tokensale: invalid owner %q", e.config.Owner)
		}
		opts = append(opts, tokensale.WithOwner(common.HexToAddress(e.config.Owner)))
	}
	if e.config.PluginTimeout > 0 {
		opts = append(opts, tokensale.WithPluginTimeout(e.config.PluginTimeout))
	}

	// Pass-through options win over config.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("tokensale: configuration is required but not found in config files; " +
				"ensure 'extensions.tokensale' or 'tokensale' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("tokensale: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("address", e.config.Address),
		forge.F("owner", e.config.Owner),
		forge.F("driver", e.config.Driver),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.tokensale", "tokensale"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("tokensale: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("tokensale: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Driver == "" {
		cfg.Driver = defaults.Driver
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.Address == "" {
		yamlConfig.Address = programmaticConfig.Address
	}
	if yamlConfig.Owner == "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}
	if yamlConfig.Driver == "" {
		yamlConfig.Driver = programmaticConfig.Driver
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	return mergeWithDefaults(yamlConfig)
}
