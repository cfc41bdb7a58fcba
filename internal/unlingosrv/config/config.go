package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type DBConfig struct {
	Backend  string `toml:"backend"` // "postgresql" or "memory"
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	DBName   string `toml:"dbname"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"sslmode"`
}

type ConfigParam struct {
	ServerPort        string   `toml:"server_port"`
	HandleCORS        bool     `toml:"handle_cors"`
	AuthSigningSecret string   `toml:"auth_signing_secret"`
	IdentityEndpoint  string   `toml:"identity_endpoint"`
	AnalyticsEndpoint string   `toml:"analytics_endpoint"`
	BlobURLBase       string   `toml:"blob_url_base"`
	DB                DBConfig `toml:"db"`
}

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

func defaultConfig() *ConfigParam {
	return &ConfigParam{
		ServerPort:        "8280",
		HandleCORS:        true,
		AuthSigningSecret: "unlingo-dev-secret",
		BlobURLBase:       "http://localhost:8280/content/blobs",
		DB: DBConfig{
			Backend:  "postgresql",
			Host:     "localhost",
			Port:     5432,
			DBName:   "unlingo",
			User:     "unlingo_api",
			Password: "abc@123",
			SSLMode:  "disable",
		},
	}
}

func LoadConfig(filename string) error {
	if filename == "" {
		cfg = defaultConfig()
		return nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	cp := defaultConfig()
	if _, err := toml.Decode(string(content), cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	cfg = cp
	return nil
}

// Dsn returns the postgres connection string for the configured database.
func Dsn() string {
	c := Config().DB
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func init() {
	err := LoadConfig("")
	if err != nil {
		panic(err)
	}
}
