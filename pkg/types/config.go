package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	CacheSize int    `json:"cache_size" yaml:"cache_size"`
	Debug     bool   `json:"debug" yaml:"debug"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultCacheSize bounds the advisory aspect cache when Config.CacheSize
// is zero.
const DefaultCacheSize = 1024

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrCacheSizeInvalid = errors.New("cache size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.CacheSize < 0 {
		return ErrCacheSizeInvalid
	}
	return nil
}
