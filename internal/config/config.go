package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Completion backend modes.
const (
	CompletionModeEndpoint = "endpoint"
	CompletionModeOpenAI   = "openai"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Completion CompletionConfig `json:"completion"`
	Auth       AuthConfig       `json:"auth"`
	CORS       CORSConfig       `json:"cors"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

// CompletionConfig selects how assistant replies are produced: the hosted
// completion endpoint, or a direct OpenAI-compatible provider.
type CompletionConfig struct {
	Mode     string `json:"mode"`
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Model    string `json:"model,omitempty"`
}

type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
}

type CORSConfig struct {
	Origins string `json:"origins"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".matrixtwin"))
	}

	// Set defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "matrixtwin")
	viper.SetDefault("database.database", "matrixtwin")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("completion.mode", CompletionModeEndpoint)
	viper.SetDefault("completion.endpoint", "https://api.matrixtwin.com/api/chat/completions")
	viper.SetDefault("completion.model", "gpt-4o-mini")
	viper.SetDefault("cors.origins", "http://localhost:5173,http://localhost:3000")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file: defaults plus environment overrides.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("MATRIXTWIN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("MATRIXTWIN_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if secret := os.Getenv("MATRIXTWIN_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if origins := os.Getenv("MATRIXTWIN_CORS_ORIGINS"); origins != "" {
		cfg.CORS.Origins = origins
	}

	if endpoint := os.Getenv("MATRIXTWIN_COMPLETION_ENDPOINT"); endpoint != "" {
		cfg.Completion.Mode = CompletionModeEndpoint
		cfg.Completion.Endpoint = endpoint
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && cfg.Completion.APIKey == "" {
		cfg.Completion.APIKey = apiKey
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}
}
