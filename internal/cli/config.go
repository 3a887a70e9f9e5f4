package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pkglens/pkglens/pkg/cache"
	pkgerrors "github.com/pkglens/pkglens/pkg/errors"
	"github.com/pkglens/pkglens/pkg/resolve"
)

// appName is used for the default cache and config directories.
const appName = "pkglens"

// defaultCacheTTL bounds how long cached registry responses and analysis
// results stay fresh.
const defaultCacheTTL = 24 * time.Hour

// Config holds the CLI configuration, loadable from a TOML file.
// Every field has a working default; flags override file values.
type Config struct {
	// Platform is the install target as "os/cpu/libc", e.g. "linux/x64/glibc".
	Platform string `toml:"platform"`

	// RegistryURL overrides the npm registry endpoint.
	RegistryURL string `toml:"registry_url"`

	// OSVURL overrides the OSV API endpoint.
	OSVURL string `toml:"osv_url"`

	// CacheBackend selects the cache: "file", "redis", or "off".
	CacheBackend string `toml:"cache_backend"`

	// CacheDir overrides the file cache location.
	CacheDir string `toml:"cache_dir"`

	// CacheTTL is the freshness bound for cached data, e.g. "24h".
	CacheTTL duration `toml:"cache_ttl"`

	// RedisAddr, RedisPassword and RedisDB configure the redis backend.
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// Concurrency bounds parallel vulnerability lookups.
	Concurrency int `toml:"concurrency"`

	// FetchConcurrency bounds parallel registry metadata fetches.
	FetchConcurrency int `toml:"fetch_concurrency"`
}

// duration wraps time.Duration so TOML values like "24h" parse.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(parsed)
	return nil
}

// defaultConfig returns the configuration used when no file is present.
func defaultConfig() Config {
	return Config{
		Platform:     "linux/x64/glibc",
		CacheBackend: "file",
		CacheTTL:     duration(defaultCacheTTL),
		RedisAddr:    "localhost:6379",
	}
}

// loadConfig reads the TOML config at path, or the default location when
// path is empty. A missing file yields the defaults; a malformed file is
// an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "config.toml")
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidConfig, err, "loading config %s", path)
	}
	return cfg, nil
}

// parsePlatform parses an "os/cpu/libc" triple. The libc component may be
// omitted for platforms where it is irrelevant.
func parsePlatform(s string) (resolve.TargetPlatform, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
	}
	switch {
	case len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "":
		return resolve.TargetPlatform{OS: parts[0], CPU: parts[1], Libc: parts[2]}, nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return resolve.TargetPlatform{OS: parts[0], CPU: parts[1]}, nil
	default:
		return resolve.TargetPlatform{}, pkgerrors.New(pkgerrors.ErrCodeInvalidPlatform,
			"invalid platform %q (expected os/cpu/libc, e.g. linux/x64/glibc)", s)
	}
}

// newCache builds the cache backend the config selects. An unreachable
// file cache falls back to a null cache; an unreachable Redis is an error
// since the operator asked for it explicitly.
func (c Config) newCache(ctx context.Context) (cache.Cache, error) {
	switch c.CacheBackend {
	case "off":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
	case "", "file":
		dir := c.CacheDir
		if dir == "" {
			var err error
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		return cache.NewFileCache(dir)
	default:
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidConfig,
			"unknown cache backend %q (expected file, redis, or off)", c.CacheBackend)
	}
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/pkglens/ unless XDG_CACHE_HOME is set).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory (~/.config/pkglens/ unless
// XDG_CONFIG_HOME is set).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}
