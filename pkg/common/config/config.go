package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Backend API
	APIBaseURL     string        `yaml:"api_base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Credential storage
	TokenPath string `yaml:"token_path"`

	// Query revalidation intervals
	KPIRefreshInterval  time.Duration `yaml:"kpi_refresh_interval"`
	ListRefreshInterval time.Duration `yaml:"list_refresh_interval"`

	// CSV exports are written here
	ExportDir string `yaml:"export_dir"`

	// Devserver
	ServerHost   string        `yaml:"server_host"`
	ServerPort   string        `yaml:"server_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Load builds the configuration from environment variables, then overlays the
// YAML config file when one exists. Env wins for values set in both.
func Load() *Config {
	cfg := &Config{
		APIBaseURL:     getEnv("CLINIC_API_URL", "http://localhost:8080"),
		RequestTimeout: getDuration("CLINIC_REQUEST_TIMEOUT", 30*time.Second),

		TokenPath: getEnv("CLINIC_TOKEN_PATH", defaultTokenPath()),

		KPIRefreshInterval:  getDuration("CLINIC_KPI_REFRESH", 30*time.Second),
		ListRefreshInterval: getDuration("CLINIC_LIST_REFRESH", 60*time.Second),

		ExportDir: getEnv("CLINIC_EXPORT_DIR", "."),

		ServerHost:   getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		ReadTimeout:  getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout: getDuration("WRITE_TIMEOUT", 30*time.Second),
		JWTSecret:    getEnv("CLINIC_JWT_SECRET", "devserver-local-secret"),
		TokenTTL:     getDuration("CLINIC_TOKEN_TTL", 24*time.Hour),
	}

	if path := configFilePath(); path != "" {
		applyFile(cfg, path)
	}

	return cfg
}

func configFilePath() string {
	if path := os.Getenv("CLINIC_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "clinic-console", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func applyFile(cfg *Config, path string) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return
	}

	var overlay Config
	if err := yaml.Unmarshal(content, &overlay); err != nil {
		return
	}

	if overlay.APIBaseURL != "" && os.Getenv("CLINIC_API_URL") == "" {
		cfg.APIBaseURL = overlay.APIBaseURL
	}
	if overlay.RequestTimeout > 0 && os.Getenv("CLINIC_REQUEST_TIMEOUT") == "" {
		cfg.RequestTimeout = overlay.RequestTimeout
	}
	if overlay.TokenPath != "" && os.Getenv("CLINIC_TOKEN_PATH") == "" {
		cfg.TokenPath = overlay.TokenPath
	}
	if overlay.KPIRefreshInterval > 0 && os.Getenv("CLINIC_KPI_REFRESH") == "" {
		cfg.KPIRefreshInterval = overlay.KPIRefreshInterval
	}
	if overlay.ListRefreshInterval > 0 && os.Getenv("CLINIC_LIST_REFRESH") == "" {
		cfg.ListRefreshInterval = overlay.ListRefreshInterval
	}
	if overlay.ExportDir != "" && os.Getenv("CLINIC_EXPORT_DIR") == "" {
		cfg.ExportDir = overlay.ExportDir
	}
	if overlay.JWTSecret != "" && os.Getenv("CLINIC_JWT_SECRET") == "" {
		cfg.JWTSecret = overlay.JWTSecret
	}
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "clinic-console", "token")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
