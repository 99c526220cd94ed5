package extension

import "time"

// Config holds the tokensale extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.tokensale" or "tokensale" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Address is the hex custody address the ledger holds output tokens at.
	Address string `json:"address" mapstructure:"address" yaml:"address"`

	// Owner is the hex address allowed to run administrative operations.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// Driver selects the store backend: "memory", "postgres", "sqlite" or
	// "mongo" (default: "memory"). Every backend except memory needs a
	// grove.DB supplied with WithGroveDatabase.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver:        DriverMemory,
		PluginTimeout: 5 * time.Second,
	}
}
