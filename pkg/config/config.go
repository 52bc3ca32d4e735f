// Package config loads annoview settings from TOML or YAML files.
//
// Settings are layered: built-in defaults, then the config file, then
// environment variables (a .env file in the working directory is read
// first). The file format follows the extension: .toml, .yaml or .yml.
//
//	[layout]
//	canvas_width = 1024
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/layout"
)

// Backend names.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the full application configuration.
type Config struct {
	Layout layout.Params `toml:"layout" yaml:"layout"`
	Server ServerConfig  `toml:"server" yaml:"server"`
	Client ClientConfig  `toml:"client" yaml:"client"`
	Cache  CacheConfig   `toml:"cache" yaml:"cache"`
	Store  StoreConfig   `toml:"store" yaml:"store"`
	Watch  WatchConfig   `toml:"watch" yaml:"watch"`
}

// ServerConfig configures the document API server.
type ServerConfig struct {
	Addr         string        `toml:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout" yaml:"write_timeout"`
}

// ClientConfig configures document fetches.
type ClientConfig struct {
	BaseURL string        `toml:"base_url" yaml:"base_url"`
	Timeout time.Duration `toml:"timeout" yaml:"timeout"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend       string        `toml:"backend" yaml:"backend"`
	Dir           string        `toml:"dir" yaml:"dir"`
	RedisAddr     string        `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `toml:"redis_db" yaml:"redis_db"`
	Prefix        string        `toml:"prefix" yaml:"prefix"`
	LayoutTTL     time.Duration `toml:"layout_ttl" yaml:"layout_ttl"`
}

// StoreConfig selects where the server reads documents from.
type StoreConfig struct {
	Backend  string `toml:"backend" yaml:"backend"`
	Root     string `toml:"root" yaml:"root"`
	MongoURI string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db" yaml:"mongo_db"`
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	Debounce time.Duration `toml:"debounce" yaml:"debounce"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Layout: layout.DefaultParams(),
		Server: ServerConfig{
			Addr:         "localhost:8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			Prefix:    "annoview:",
			LayoutTTL: 24 * time.Hour,
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Root:    "data",
			MongoDB: "annoview",
		},
		Watch: WatchConfig{Debounce: 100 * time.Millisecond},
	}
}

// Environment variables that override file settings.
const (
	EnvServerAddr    = "ANNOVIEW_ADDR"
	EnvServerURL     = "ANNOVIEW_SERVER_URL"
	EnvRedisAddr     = "ANNOVIEW_REDIS_ADDR"
	EnvRedisPassword = "ANNOVIEW_REDIS_PASSWORD"
	EnvMongoURI      = "ANNOVIEW_MONGO_URI"
	EnvStoreRoot     = "ANNOVIEW_STORE_ROOT"
)

// Load reads path on top of the defaults and applies environment
// overrides. An empty path loads the user config file if one exists.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = userConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
		}
		if err := Decode(data, FormatFromPath(path), &cfg); err != nil {
			return cfg, err
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	return cfg, cfg.Validate()
}

// Format is a config file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the syntax from a file extension, TOML by default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Decode parses data into cfg. Keys absent from data keep their value.
func Decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse toml config")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "unknown config key %s", undecoded[0])
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse yaml config")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
	return nil
}

// Encode writes cfg in the given syntax.
func Encode(cfg Config, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported config format %q", format)
	}
	return buf.Bytes(), nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Server.Addr, EnvServerAddr)
	set(&cfg.Client.BaseURL, EnvServerURL)
	set(&cfg.Cache.RedisAddr, EnvRedisAddr)
	set(&cfg.Cache.RedisPassword, EnvRedisPassword)
	set(&cfg.Store.MongoURI, EnvMongoURI)
	set(&cfg.Store.Root, EnvStoreRoot)
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache backend redis needs redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Root == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store backend file needs root")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store backend mongo needs mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Client.BaseURL != "" {
		if err := errors.ValidateURL(c.Client.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

// userConfigPath returns the first existing config file under the user
// config directory, or "".
func userConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
		p := filepath.Join(dir, "annoview", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
