package config

import (
	"errors"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(lookupFrom(map[string]string{"REDIS_CONNECTION_STRING": "localhost:6379"}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Backend != BackendRedis || cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.WriteBuffer != 64 || cfg.WriteTimeout != 10*time.Second || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected writer defaults %+v", cfg)
	}
	if cfg.Table != "todos" || cfg.Partition != "local" || cfg.Debug {
		t.Fatalf("unexpected table defaults %+v", cfg)
	}
	if cfg.CacheEnabled() {
		t.Fatal("cache must only apply to the table backend")
	}
}

func TestLoadTables(t *testing.T) {
	cfg, err := load(lookupFrom(map[string]string{
		"DEBUG":                     "true",
		"PORT":                      "7071",
		"STORE_BACKEND":             "Tables",
		"STORAGE_CONNECTION_STRING": "UseDevelopmentStorage=true",
		"STORE_TABLE":               "mytodos",
		"STORE_PARTITION":           "alice",
		"REDIS_CONNECTION_STRING":   "cache:6380,password=secret,ssl=True",
		"CACHE_TTL":                 "30s",
		"WRITE_BUFFER":              "8",
		"WRITE_TIMEOUT":             "2s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Debug || cfg.ListenAddr != ":7071" || cfg.Backend != BackendTables {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Table != "mytodos" || cfg.Partition != "alice" {
		t.Fatalf("unexpected table config %+v", cfg)
	}
	if cfg.CacheTTL != 30*time.Second || cfg.WriteBuffer != 8 || cfg.WriteTimeout != 2*time.Second {
		t.Fatalf("unexpected tuning %+v", cfg)
	}
	if !cfg.CacheEnabled() {
		t.Fatal("expected cache to be enabled")
	}
}

func TestListenAddrWinsOverPort(t *testing.T) {
	cfg, err := load(lookupFrom(map[string]string{
		"REDIS_CONNECTION_STRING": "localhost:6379",
		"PORT":                    "9000",
		"LISTEN_ADDR":             "127.0.0.1:9100",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9100" {
		t.Fatalf("got %q", cfg.ListenAddr)
	}
}

func TestZeroCacheTTLDisablesCache(t *testing.T) {
	cfg, err := load(lookupFrom(map[string]string{
		"STORE_BACKEND":             "tables",
		"STORAGE_CONNECTION_STRING": "UseDevelopmentStorage=true",
		"REDIS_CONNECTION_STRING":   "localhost:6379",
		"CACHE_TTL":                 "0s",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheEnabled() {
		t.Fatal("expected cache to be disabled")
	}
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"missing redis", map[string]string{}},
		{"missing storage", map[string]string{"STORE_BACKEND": "tables"}},
		{"bad buffer", map[string]string{"REDIS_CONNECTION_STRING": "r:1", "WRITE_BUFFER": "many"}},
		{"zero buffer", map[string]string{"REDIS_CONNECTION_STRING": "r:1", "WRITE_BUFFER": "0"}},
		{"bad timeout", map[string]string{"REDIS_CONNECTION_STRING": "r:1", "WRITE_TIMEOUT": "soon"}},
		{"zero timeout", map[string]string{"REDIS_CONNECTION_STRING": "r:1", "WRITE_TIMEOUT": "0s"}},
		{"negative ttl", map[string]string{"REDIS_CONNECTION_STRING": "r:1", "CACHE_TTL": "-1m"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := load(lookupFrom(tc.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := load(lookupFrom(map[string]string{"STORE_BACKEND": "sqlite"}))
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestLoadReadsProcessEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_CONNECTION_STRING", "redis://localhost:6379/2")
	t.Setenv("STORE_KEY_PREFIX", "todo:")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.KeyPrefix != "todo:" || cfg.RedisConnection != "redis://localhost:6379/2" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestRedisOptions(t *testing.T) {
	opts, err := RedisOptions("redis://:pw@localhost:6379/3")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.Password != "pw" || opts.DB != 3 {
		t.Fatalf("unexpected url options %+v", opts)
	}

	opts, err = RedisOptions("todo.redis.cache.windows.net:6380,password=abc=,ssl=True,abortConnect=False")
	if err != nil {
		t.Fatalf("azure: %v", err)
	}
	if opts.Addr != "todo.redis.cache.windows.net:6380" || opts.Password != "abc=" || opts.TLSConfig == nil {
		t.Fatalf("unexpected azure options %+v", opts)
	}

	opts, err = RedisOptions("localhost:6379")
	if err != nil || opts.TLSConfig != nil || opts.Password != "" {
		t.Fatalf("unexpected plain options %+v %v", opts, err)
	}

	if _, err := RedisOptions(""); err == nil {
		t.Fatal("expected error for empty string")
	}
}
