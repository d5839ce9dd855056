// Package config loads service configuration from an optional config file and
// the environment. Environment variables use the EQUIPCHECK_ prefix and
// override file values.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime configuration of the service.
type Config struct {
	HTTPPort     string `mapstructure:"http_port"`
	DatabasePath string `mapstructure:"database_path"`
	AuditDir     string `mapstructure:"audit_dir"`
	Debug        bool   `mapstructure:"debug"`

	// DetailedAreas overrides the built-in detailed sub-area set when non-empty.
	DetailedAreas []string `mapstructure:"detailed_areas"`

	// Bootstrap admin account, created on first startup if absent.
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminFullName string `mapstructure:"admin_fullname"`
}

// Load reads configuration from the given file path (may be empty), a .env
// file in the working directory, and the environment.
func Load(configFile string) (*Config, error) {
	// A missing .env file is not an error; deployments may configure
	// everything through the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("http_port", "8090")
	v.SetDefault("database_path", "data/equipcheck.db")
	v.SetDefault("audit_dir", "data/audit")
	v.SetDefault("debug", false)
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password", "admin")
	v.SetDefault("admin_fullname", "Administrator")

	v.SetEnvPrefix("EQUIPCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
