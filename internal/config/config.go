// Package config loads the benchmark driver's settings from YAML or JSON.
//
// Values missing from the document keep their defaults; Validate reports
// the first unusable field.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/IvanBrykalov/stripecache/internal/util"
	"github.com/IvanBrykalov/stripecache/policy"
)

var (
	// ErrUnsupportedFormat is returned for a file extension or format name
	// other than yaml/yml/json.
	ErrUnsupportedFormat = errors.New("config: unsupported format")

	// ErrLoadFailed wraps I/O errors while reading the file.
	ErrLoadFailed = errors.New("config: failed to load")

	// ErrParseFailed wraps parser and decode errors.
	ErrParseFailed = errors.New("config: failed to parse")

	// ErrInvalidConfig is returned by Validate.
	ErrInvalidConfig = errors.New("config: invalid value")
)

// Format names a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Cache describes the cache under test.
type Cache struct {
	Policy   policy.Kind `koanf:"policy"`
	Capacity int         `koanf:"capacity"`
	Segments int         `koanf:"segments"`
}

// Workload describes the synthetic load.
type Workload struct {
	Workers  int           `koanf:"workers"`
	Duration time.Duration `koanf:"duration"`
	Reads    int           `koanf:"reads"` // percentage of Get operations
	Keys     int           `koanf:"keys"`
	ZipfS    float64       `koanf:"zipf_s"`
	ZipfV    float64       `koanf:"zipf_v"`
	Seed     int64         `koanf:"seed"` // 0 => time-based
	Preload  int           `koanf:"preload"`
}

// Metrics configures the exporters.
type Metrics struct {
	Addr      string `koanf:"addr"` // empty disables /metrics
	Namespace string `koanf:"namespace"`
	OTel      bool   `koanf:"otel"`
}

// Log configures the process logger.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Config is the root document.
type Config struct {
	Cache    Cache    `koanf:"cache"`
	Workload Workload `koanf:"workload"`
	Metrics  Metrics  `koanf:"metrics"`
	Log      Log      `koanf:"log"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Cache: Cache{
			Policy:   policy.LRU,
			Capacity: 100_000,
			Segments: util.DefaultStripes,
		},
		Workload: Workload{
			Workers:  2 * runtime.GOMAXPROCS(0),
			Duration: 10 * time.Second,
			Reads:    80,
			Keys:     1_000_000,
			ZipfS:    1.1,
			ZipfV:    1.0,
		},
		Metrics: Metrics{
			Addr:      ":8080",
			Namespace: "stripecache",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path and overlays it on Default. The format follows the file
// extension (.yaml, .yml, .json).
func Load(path string) (Config, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return Parse(data, format)
}

// Parse decodes data in the given format and overlays it on Default.
// Empty data yields Default.
func Parse(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	cfg := Default()
	if len(data) == 0 {
		return cfg, nil
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return cfg, nil
}

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

// Validate checks ranges that the cache and the driver cannot recover from.
// An LFU capacity of zero is accepted: it is a valid, inert cache.
func (c Config) Validate() error {
	switch {
	case !c.Cache.Policy.Valid():
		return fmt.Errorf("%w: cache.policy %d", ErrInvalidConfig, c.Cache.Policy)
	case c.Cache.Capacity < 0, c.Cache.Policy == policy.LRU && c.Cache.Capacity == 0:
		return fmt.Errorf("%w: cache.capacity %d for %s", ErrInvalidConfig, c.Cache.Capacity, c.Cache.Policy)
	case c.Cache.Segments < 0 || c.Cache.Segments > util.MaxStripes:
		return fmt.Errorf("%w: cache.segments %d not in [0, %d]", ErrInvalidConfig, c.Cache.Segments, util.MaxStripes)
	case c.Workload.Workers <= 0:
		return fmt.Errorf("%w: workload.workers must be > 0", ErrInvalidConfig)
	case c.Workload.Duration <= 0:
		return fmt.Errorf("%w: workload.duration must be > 0", ErrInvalidConfig)
	case c.Workload.Reads < 0 || c.Workload.Reads > 100:
		return fmt.Errorf("%w: workload.reads %d not in [0, 100]", ErrInvalidConfig, c.Workload.Reads)
	case c.Workload.Keys <= 0:
		return fmt.Errorf("%w: workload.keys must be > 0", ErrInvalidConfig)
	case c.Workload.ZipfS <= 1:
		return fmt.Errorf("%w: workload.zipf_s must be > 1", ErrInvalidConfig)
	case c.Workload.ZipfV < 1:
		return fmt.Errorf("%w: workload.zipf_v must be >= 1", ErrInvalidConfig)
	case c.Workload.Preload < 0:
		return fmt.Errorf("%w: workload.preload must be >= 0", ErrInvalidConfig)
	}
	return nil
}
