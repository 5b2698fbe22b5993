package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Validate_Success(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        3001,
			MaxInFlight: 50,
		},
	}

	err := cfg.Validate()
	if err != nil {
		t.Errorf("Validate() should pass, got %v", err)
	}
}

func TestConfig_Validate_PortOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"too high", 70000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server: ServerConfig{
					Port:        tt.port,
					MaxInFlight: 50,
				},
			}

			err := cfg.Validate()
			if err == nil {
				t.Errorf("Validate() should fail for port %d", tt.port)
			}
		})
	}
}

func TestConfig_Validate_MaxInFlight(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        3001,
			MaxInFlight: 0,
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Error("Validate() should fail for non-positive SERVER_MAX_IN_FLIGHT")
	}
}

func TestServerConfig_Address(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
		want string
	}{
		{
			name: "default",
			cfg:  ServerConfig{Host: "0.0.0.0", Port: 3001},
			want: "0.0.0.0:3001",
		},
		{
			name: "localhost",
			cfg:  ServerConfig{Host: "localhost", Port: 8080},
			want: "localhost:8080",
		},
		{
			name: "specific IP",
			cfg:  ServerConfig{Host: "192.168.1.100", Port: 3000},
			want: "192.168.1.100:3000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Address(); got != tt.want {
				t.Errorf("Address() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 3001 {
		t.Errorf("Port = %d, want %d", cfg.Server.Port, 3001)
	}
	if cfg.Server.MaxInFlight != 50 {
		t.Errorf("MaxInFlight = %d, want %d", cfg.Server.MaxInFlight, 50)
	}
	if cfg.Scraper.ProfileDelay != time.Second {
		t.Errorf("ProfileDelay = %v, want %v", cfg.Scraper.ProfileDelay, time.Second)
	}
	if cfg.Scraper.Proxy != "" {
		t.Errorf("Proxy = %q, want empty", cfg.Scraper.Proxy)
	}
}

func TestLoad_FromYAMLFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Note: envconfig.Process() applies defaults even when YAML is loaded,
	// so fields with default tags must be asserted via env vars. Fields
	// without defaults (proxy, allowed_origins) keep their YAML values.
	t.Setenv("SERVER_HOST", "localhost")
	t.Setenv("SERVER_PORT", "8080")

	yamlContent := `
server:
  allowed_origins:
    - "https://app.example.com"
scraper:
  proxy: "socks5://127.0.0.1:9050"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want %q", cfg.Server.Host, "localhost")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Scraper.Proxy != "socks5://127.0.0.1:9050" {
		t.Errorf("Proxy = %q, want YAML value", cfg.Scraper.Proxy)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %v, want YAML value", cfg.Server.AllowedOrigins)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
scraper:
  proxy: "http://yaml-proxy:8080"
  profile_delay: 5s
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	t.Setenv("SCRAPER_PROXY", "http://env-proxy:8080")
	t.Setenv("SCRAPER_PROFILE_DELAY", "2s")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scraper.Proxy != "http://env-proxy:8080" {
		t.Errorf("Proxy should be from env, got %q", cfg.Scraper.Proxy)
	}
	if cfg.Scraper.ProfileDelay != 2*time.Second {
		t.Errorf("ProfileDelay should be from env, got %v", cfg.Scraper.ProfileDelay)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	invalidYAML := `
server:
  host: "localhost
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load should fail for invalid YAML")
	}
}

func TestLoad_NonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load should fail for nonexistent file")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load("")
	if err == nil {
		t.Error("Load should fail validation for an out-of-range port")
	}
}
