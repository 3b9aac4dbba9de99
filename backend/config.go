// Package backend builds a provider.Provider from a YAML document.
//
//	type: redis
//	redis:
//	  addrs: ["127.0.0.1:6379"]
//	  db: 2
//	  dial_timeout: 2s
package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	TypeMemory    = "memory"
	TypeRedis     = "redis"
	TypeBigCache  = "bigcache"
	TypeRistretto = "ristretto"
	TypeBbolt     = "bbolt"
)

var (
	ErrUnknownType   = errors.New("backend: unknown type")
	ErrMissingConfig = errors.New("backend: missing section for type")
)

type Config struct {
	Type string `yaml:"type" validate:"required"`

	Redis     *RedisConfig     `yaml:"redis"`
	BigCache  *BigCacheConfig  `yaml:"bigcache"`
	Ristretto *RistrettoConfig `yaml:"ristretto"`
	Bbolt     *BboltConfig     `yaml:"bbolt"`
}

type RedisConfig struct {
	Addrs       []string      `yaml:"addrs" validate:"required,min=1,dive,hostname_port"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db" validate:"gte=0"`
	DialTimeout time.Duration `yaml:"dial_timeout" validate:"gte=0"`
	PingTimeout time.Duration `yaml:"ping_timeout" validate:"gte=0"` // 0 => 5s
}

type BigCacheConfig struct {
	// Upper bound on any entry's lifetime; per-entry expiry is tracked separately.
	LifeWindow         time.Duration `yaml:"life_window" validate:"required,gt=0"`
	CleanWindow        time.Duration `yaml:"clean_window" validate:"gte=0"`
	MaxEntriesInWindow int           `yaml:"max_entries_in_window" validate:"gte=0"`
	MaxEntrySize       int           `yaml:"max_entry_size" validate:"gte=0"`
	HardMaxCacheSizeMB int           `yaml:"hard_max_cache_size_mb" validate:"gte=0"`
}

type RistrettoConfig struct {
	NumCounters int64 `yaml:"num_counters" validate:"required,gt=0"`
	MaxCost     int64 `yaml:"max_cost" validate:"required,gt=0"`
	BufferItems int64 `yaml:"buffer_items" validate:"gte=0"` // 0 => 64
	Metrics     bool  `yaml:"metrics"`
}

type BboltConfig struct {
	Path    string        `yaml:"path" validate:"required"`
	Bucket  string        `yaml:"bucket"`
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"` // file lock wait; 0 => 1s
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(sectionPresent, Config{})
	return v
}

// sectionPresent requires the sub-config named by Type.
func sectionPresent(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	var missing bool
	switch c.Type {
	case TypeRedis:
		missing = c.Redis == nil
	case TypeBigCache:
		missing = c.BigCache == nil
	case TypeRistretto:
		missing = c.Ristretto == nil
	case TypeBbolt:
		missing = c.Bbolt == nil
	}
	if missing {
		sl.ReportError(c.Type, c.Type, c.Type, "section", c.Type)
	}
}

// Defaults is the config used when a document omits fields.
func Defaults() Config {
	return Config{Type: TypeMemory}
}

// Validate checks cfg without opening anything.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "section" {
					return fmt.Errorf("%w %q", ErrMissingConfig, c.Type)
				}
			}
		}
		return fmt.Errorf("backend: config validation failed: %w", err)
	}
	return nil
}

// Parse decodes and validates a YAML document. Unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("backend: failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("backend: read config: %w", err)
	}
	return Parse(data)
}
