package config

import (
	"testing"
	"time"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(env(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.Transport != TransportStdio {
		t.Errorf("Transport = %q, want %q", cfg.Transport, TransportStdio)
	}
	if cfg.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", cfg.PageSize, DefaultPageSize)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, DefaultRequestTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Run("valid overrides applied", func(t *testing.T) {
		cfg, err := Load(env(map[string]string{
			"MCP_PORT":                 "9090",
			"MCP_HOST":                 "127.0.0.1",
			"MCP_TRANSPORT":            "http",
			"MCP_REQUEST_TIMEOUT_MS":   "5000",
			"MCP_SHUTDOWN_TIMEOUT_MS":  "1000",
			"MCP_PROGRESS_INTERVAL_MS": "250",
			"MCP_PAGE_SIZE":            "100",
			"MCP_LOG_LEVEL":            "DEBUG",
			"MCP_RESOURCE_URL":         "https://example.test/mcp",
			"MCP_AUTH_SERVERS":         "https://a.example, https://b.example",
		}))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Port != 9090 {
			t.Errorf("Port = %d, want 9090", cfg.Port)
		}
		if cfg.Host != "127.0.0.1" {
			t.Errorf("Host = %q, want 127.0.0.1", cfg.Host)
		}
		if cfg.Transport != TransportHTTP {
			t.Errorf("Transport = %q, want http", cfg.Transport)
		}
		if cfg.RequestTimeout != 5*time.Second {
			t.Errorf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug (lowercased)", cfg.LogLevel)
		}
		if len(cfg.AuthServers) != 2 || cfg.AuthServers[0] != "https://a.example" {
			t.Errorf("AuthServers = %v, want [https://a.example https://b.example]", cfg.AuthServers)
		}
		if cfg.Addr() != "127.0.0.1:9090" {
			t.Errorf("Addr() = %q, want 127.0.0.1:9090", cfg.Addr())
		}
	})

	t.Run("invalid port rejected", func(t *testing.T) {
		_, err := Load(env(map[string]string{"MCP_PORT": "not-a-number"}))
		if err == nil {
			t.Error("expected error for invalid MCP_PORT")
		}
	})

	t.Run("invalid transport rejected", func(t *testing.T) {
		_, err := Load(env(map[string]string{"MCP_TRANSPORT": "carrier-pigeon"}))
		if err == nil {
			t.Error("expected error for invalid MCP_TRANSPORT")
		}
	})

	t.Run("page size above max rejected", func(t *testing.T) {
		_, err := Load(env(map[string]string{"MCP_PAGE_SIZE": "500"}))
		if err == nil {
			t.Error("expected error for MCP_PAGE_SIZE above max")
		}
	})

	t.Run("page size below min rejected", func(t *testing.T) {
		_, err := Load(env(map[string]string{"MCP_PAGE_SIZE": "0"}))
		if err == nil {
			t.Error("expected error for MCP_PAGE_SIZE below min")
		}
	})

	t.Run("non-positive timeout rejected", func(t *testing.T) {
		_, err := Load(env(map[string]string{"MCP_REQUEST_TIMEOUT_MS": "-5"}))
		if err == nil {
			t.Error("expected error for non-positive MCP_REQUEST_TIMEOUT_MS")
		}
	})
}
