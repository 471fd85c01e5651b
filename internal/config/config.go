// Package config loads the ahsmatch runtime configuration from a TOML
// file. Values absent from the file keep their defaults, and validation
// fills smart defaults for anything left at zero.
package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/rencanakan/ahsmatch/internal/errors"
)

// DefaultFilename is looked for in the working directory when no config
// path is given on the command line.
const DefaultFilename = ".ahsmatch.toml"

// Fallback values applied by validation when the file leaves a field at
// zero.
const (
	DefaultAddr              = ":8080"
	DefaultMaxBodyBytes      = 10 << 10
	DefaultRatePerSecond     = 20.0
	DefaultRateBurst         = 40
	DefaultReadTimeoutMs     = 5000
	DefaultWriteTimeoutMs    = 15000
	DefaultShutdownTimeoutMs = 10000
	DefaultWatchDebounceMs   = 500
)

type Config struct {
	Catalog    Catalog    `toml:"catalog"`
	Thresholds Thresholds `toml:"thresholds"`
	Embedding  Embedding  `toml:"embedding"`
	Breakdown  Breakdown  `toml:"breakdown"`
	Server     Server     `toml:"server"`
	Logging    Logging    `toml:"logging"`
}

// Catalog configures the CSV-backed AHS catalog.
type Catalog struct {
	Path             string `toml:"path"`
	SHA256           string `toml:"sha256"`             // expected digest of the CSV, empty skips the check
	Watch            bool   `toml:"watch"`              // reload the CSV on file changes
	WatchDebounceMs  int    `toml:"watch_debounce_ms"`  // quiet period after a change event
	NameCandidateCap int    `toml:"name_candidate_cap"` // 0 = repository default
	GetAllCap        int    `toml:"get_all_cap"`        // 0 = repository default
}

// WatchDebounce returns the debounce interval for catalog watching.
func (c Catalog) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// Thresholds configures the decision policy of the matching service.
// Zero values defer to the service defaults.
type Thresholds struct {
	Single     float64 `toml:"single"`      // minimum confidence for a single best match
	Multi      float64 `toml:"multi"`       // minimum confidence for list entries
	SingleWord float64 `toml:"single_word"` // floor for one-word queries
	Limit      int     `toml:"limit"`       // maximum list entries
}

// Embedding configures the optional trigram-embedding synonym expander.
type Embedding struct {
	Enabled  bool    `toml:"enabled"`
	Dim      int     `toml:"dim"`       // 0 = embedder default
	MinScore float64 `toml:"min_score"` // 0 = expander default
}

// Breakdown configures the unit-price breakdown datasets.
type Breakdown struct {
	DataDir string `toml:"data_dir"`
}

// Server configures the HTTP API.
type Server struct {
	Addr              string   `toml:"addr"`
	AllowedOrigins    []string `toml:"allowed_origins"`
	RatePerSecond     float64  `toml:"rate_per_second"` // per-client token refill rate
	RateBurst         int      `toml:"rate_burst"`
	MaxBodyBytes      int64    `toml:"max_body_bytes"`
	ReadTimeoutMs     int      `toml:"read_timeout_ms"`
	WriteTimeoutMs    int      `toml:"write_timeout_ms"`
	ShutdownTimeoutMs int      `toml:"shutdown_timeout_ms"`
}

// ReadTimeout returns the HTTP server read timeout.
func (s Server) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// WriteTimeout returns the HTTP server write timeout.
func (s Server) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

// ShutdownTimeout bounds graceful shutdown on exit.
func (s Server) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutMs) * time.Millisecond
}

// Logging configures logger construction.
type Logging struct {
	JSON  bool `toml:"json"`
	Debug bool `toml:"debug"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Catalog: Catalog{
			Path:            "data/ahs.csv",
			WatchDebounceMs: DefaultWatchDebounceMs,
		},
		Thresholds: Thresholds{
			Single:     0.9,
			Multi:      0.6,
			SingleWord: 0.25,
			Limit:      5,
		},
		Embedding: Embedding{
			Enabled: true,
		},
		Breakdown: Breakdown{
			DataDir: "data/breakdown",
		},
		Server: Server{
			Addr:              DefaultAddr,
			RatePerSecond:     DefaultRatePerSecond,
			RateBurst:         DefaultRateBurst,
			MaxBodyBytes:      DefaultMaxBodyBytes,
			ReadTimeoutMs:     DefaultReadTimeoutMs,
			WriteTimeoutMs:    DefaultWriteTimeoutMs,
			ShutdownTimeoutMs: DefaultShutdownTimeoutMs,
		},
	}
}

// Load reads the configuration. An empty path looks for DefaultFilename
// in the working directory and falls back to defaults when it is absent;
// an explicitly named file must exist. The result is validated with
// smart defaults applied.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			if err := ValidateConfig(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, apperrors.NewConfigError("file", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.NewConfigError("file", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
