// Package config reads service settings from the environment.
package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnknownBackend is returned for a STORE_BACKEND value other than redis or tables.
var ErrUnknownBackend = errors.New("config: unknown store backend")

type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendTables Backend = "tables"
)

type Config struct {
	Debug      bool
	ListenAddr string

	Backend         Backend
	RedisConnection string
	KeyPrefix       string

	StorageConnection string
	Table             string
	Partition         string
	// CacheTTL enables the redis read cache in front of the table backend
	// when positive and a redis connection is configured.
	CacheTTL time.Duration

	WriteBuffer  int
	WriteTimeout time.Duration
}

// CacheEnabled reports whether table reads go through the redis cache.
func (c Config) CacheEnabled() bool {
	return c.Backend == BackendTables && c.CacheTTL > 0 && c.RedisConnection != ""
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{
		ListenAddr:   ":8080",
		Backend:      BackendRedis,
		Table:        "todos",
		Partition:    "local",
		CacheTTL:     5 * time.Minute,
		WriteBuffer:  64,
		WriteTimeout: 10 * time.Second,
	}
	if v, ok := lookup("DEBUG"); ok {
		if dbg, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = dbg
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.ListenAddr = ":" + v
	}
	cfg.ListenAddr = envString(lookup, "LISTEN_ADDR", cfg.ListenAddr)

	switch b := Backend(strings.ToLower(envString(lookup, "STORE_BACKEND", string(cfg.Backend)))); b {
	case BackendRedis, BackendTables:
		cfg.Backend = b
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownBackend, b)
	}
	cfg.RedisConnection = envString(lookup, "REDIS_CONNECTION_STRING", "")
	cfg.KeyPrefix = envString(lookup, "STORE_KEY_PREFIX", "")
	cfg.StorageConnection = envString(lookup, "STORAGE_CONNECTION_STRING", "")
	cfg.Table = envString(lookup, "STORE_TABLE", cfg.Table)
	cfg.Partition = envString(lookup, "STORE_PARTITION", cfg.Partition)

	var err error
	if cfg.CacheTTL, err = envDur(lookup, "CACHE_TTL", cfg.CacheTTL, true); err != nil {
		return Config{}, err
	}
	if cfg.WriteBuffer, err = envInt(lookup, "WRITE_BUFFER", cfg.WriteBuffer); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = envDur(lookup, "WRITE_TIMEOUT", cfg.WriteTimeout, false); err != nil {
		return Config{}, err
	}

	switch cfg.Backend {
	case BackendRedis:
		if cfg.RedisConnection == "" {
			return Config{}, errors.New("missing redis config: REDIS_CONNECTION_STRING")
		}
	case BackendTables:
		if cfg.StorageConnection == "" {
			return Config{}, errors.New("missing storage config: STORAGE_CONNECTION_STRING")
		}
	}
	return cfg, nil
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", key)
	}
	return n, nil
}

func envDur(lookup func(string) (string, bool), key string, def time.Duration, allowZero bool) (time.Duration, error) {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: %s", key, d)
	}
	return d, nil
}

// RedisOptions accepts either a redis:// URL or the
// "host:port,password=...,ssl=true" form used by Azure Cache for Redis.
func RedisOptions(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, errors.New("empty redis connection string")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	if strings.TrimSpace(parts[0]) == "" {
		return nil, fmt.Errorf("redis connection string %q has no address", conn)
	}
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(strings.TrimSpace(kv[1]), "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts, nil
}
