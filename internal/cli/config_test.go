package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkglens/pkglens/pkg/resolve"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Point XDG at an empty dir so a developer's real config can't leak in.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Platform != "linux/x64/glibc" {
		t.Errorf("Platform default = %q", cfg.Platform)
	}
	if cfg.CacheBackend != "file" {
		t.Errorf("CacheBackend default = %q", cfg.CacheBackend)
	}
	if time.Duration(cfg.CacheTTL) != defaultCacheTTL {
		t.Errorf("CacheTTL default = %v", time.Duration(cfg.CacheTTL))
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
platform = "darwin/arm64/unknown"
cache_backend = "redis"
redis_addr = "redis.internal:6379"
cache_ttl = "1h30m"
concurrency = 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Platform != "darwin/arm64/unknown" {
		t.Errorf("Platform = %q", cfg.Platform)
	}
	if cfg.CacheBackend != "redis" || cfg.RedisAddr != "redis.internal:6379" {
		t.Errorf("redis config = %q %q", cfg.CacheBackend, cfg.RedisAddr)
	}
	if time.Duration(cfg.CacheTTL) != 90*time.Minute {
		t.Errorf("CacheTTL = %v", time.Duration(cfg.CacheTTL))
	}
	if cfg.Concurrency != 8 {
		t.Errorf("Concurrency = %d", cfg.Concurrency)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("explicitly named missing config should error")
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`platform = [broken`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("malformed config should error")
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input   string
		want    resolve.TargetPlatform
		wantErr bool
	}{
		{"linux/x64/glibc", resolve.TargetPlatform{OS: "linux", CPU: "x64", Libc: "glibc"}, false},
		{"linux/arm64/musl", resolve.TargetPlatform{OS: "linux", CPU: "arm64", Libc: "musl"}, false},
		{"darwin/arm64", resolve.TargetPlatform{OS: "darwin", CPU: "arm64"}, false},
		{" win32 / x64 / unknown ", resolve.TargetPlatform{OS: "win32", CPU: "x64", Libc: "unknown"}, false},
		{"linux", resolve.TargetPlatform{}, true},
		{"linux//glibc", resolve.TargetPlatform{}, true},
		{"", resolve.TargetPlatform{}, true},
		{"a/b/c/d", resolve.TargetPlatform{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parsePlatform(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePlatform(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parsePlatform(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestConfigNewCacheRejectsUnknownBackend(t *testing.T) {
	cfg := defaultConfig()
	cfg.CacheBackend = "memcached"
	if _, err := cfg.newCache(context.Background()); err == nil {
		t.Error("unknown backend should be rejected")
	}
}

func TestConfigNewCacheOff(t *testing.T) {
	cfg := defaultConfig()
	cfg.CacheBackend = "off"
	c, err := cfg.newCache(context.Background())
	if err != nil {
		t.Fatalf("newCache: %v", err)
	}
	defer c.Close()
}
