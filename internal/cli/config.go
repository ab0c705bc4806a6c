package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gemlock/internal/server"
	"github.com/matzehuels/gemlock/pkg/cache"
	gemerrors "github.com/matzehuels/gemlock/pkg/errors"
	"github.com/matzehuels/gemlock/pkg/integrations/rubygems"
	"github.com/matzehuels/gemlock/pkg/resolve"
)

// Config is the optional config.toml:
//
//	registry = "https://rubygems.org"
//	platforms = ["x86_64-linux", "arm64-darwin"]
//	workers = 8
//	fetch_timeout = "30s"
//
//	[cache]
//	backend = "redis"
//	ttl = "24h"
//	prefix = "ci:"
//
//	[cache.redis]
//	addr = "localhost:6379"
type Config struct {
	Registry     string       `toml:"registry"`
	Platforms    []string     `toml:"platforms"`
	Workers      int          `toml:"workers"`
	FetchTimeout duration     `toml:"fetch_timeout"`
	Cache        CacheConfig  `toml:"cache"`
	Server       ServerConfig `toml:"server"`
}

// CacheConfig is the [cache] table.
type CacheConfig struct {
	Backend string      `toml:"backend"` // file, redis, mongo or none
	Dir     string      `toml:"dir"`
	TTL     duration    `toml:"ttl"`
	Prefix  string      `toml:"prefix"` // key scope for shared backends
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig is the [cache.redis] table.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig is the [cache.mongo] table.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig is the [server] table.
type ServerConfig struct {
	Addr      string   `toml:"addr"`
	ResultTTL duration `toml:"result_ttl"`
}

// duration decodes TOML strings such as "30s" or "24h".
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func defaultConfig() *Config {
	cfg := &Config{
		Registry:     rubygems.DefaultURL,
		Workers:      resolve.DefaultWorkers,
		FetchTimeout: duration{resolve.DefaultFetchTimeout},
	}
	cfg.Cache.Backend = cache.BackendFile
	cfg.Cache.TTL = duration{defaultCacheTTL}
	cfg.Cache.Mongo.Database = "gemlock"
	cfg.Cache.Mongo.Collection = "cache"
	cfg.Server.Addr = server.DefaultAddr
	cfg.Server.ResultTTL = duration{server.DefaultResultTTL}
	return cfg
}

// loadConfig reads path over the defaults. A missing file at the default
// location is not an error; a missing file named explicitly is.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, gemerrors.Wrap(gemerrors.ErrCodeInvalidConfig, err, "read config")
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, gemerrors.Wrap(gemerrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := gemerrors.ValidateURL(cfg.Registry); err != nil {
		return nil, gemerrors.Wrap(gemerrors.ErrCodeInvalidConfig, err, "registry")
	}
	return cfg, nil
}

// cacheConfig maps the [cache] table onto cache.Open's configuration.
func (c *Config) cacheConfig() (cache.Config, error) {
	cc := cache.Config{
		Backend: c.Cache.Backend,
		Dir:     c.Cache.Dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		},
		Mongo: cache.MongoOptions{
			URI:        c.Cache.Mongo.URI,
			Database:   c.Cache.Mongo.Database,
			Collection: c.Cache.Mongo.Collection,
		},
	}
	if cc.Dir == "" && (cc.Backend == "" || cc.Backend == cache.BackendFile) {
		dir, err := cacheDir()
		if err != nil {
			return cc, err
		}
		cc.Dir = dir
	}
	return cc, nil
}

// configPath returns the default config file location using the XDG
// standard (~/.config/gemlock/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
