package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type CLIConfig struct {
	DefaultK       int              `mapstructure:"default_k"`
	DefaultOutput  string           `mapstructure:"default_output"`
	DefaultFormat  string           `mapstructure:"default_format"`
	MissingMarkers []string         `mapstructure:"missing_markers"`
	Postgres       PostgresSettings `mapstructure:"postgres"`
	Preferences    Preferences      `mapstructure:"preferences"`
}

type PostgresSettings struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
	Table    string `mapstructure:"table"`
}

type Preferences struct {
	GroupColor bool   `mapstructure:"group_color"`
	LogLevel   string `mapstructure:"log_level"`
}

func LoadConfig(cfgFile string) (*CLIConfig, error) {
	config := &CLIConfig{
		DefaultK:       10,
		DefaultOutput:  "-",
		DefaultFormat:  "csv",
		MissingMarkers: []string{"?"},
		Preferences: Preferences{
			GroupColor: false,
			LogLevel:   "info",
		},
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		configPath := filepath.Join(home, ".privacy-toolkit")
		viper.AddConfigPath(configPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PRIVACY")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("default_k", config.DefaultK)
	viper.SetDefault("default_output", config.DefaultOutput)
	viper.SetDefault("default_format", config.DefaultFormat)
	viper.SetDefault("missing_markers", config.MissingMarkers)
	viper.SetDefault("preferences.group_color", config.Preferences.GroupColor)
	viper.SetDefault("preferences.log_level", config.Preferences.LogLevel)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

func SaveConfig(config *CLIConfig, cfgFile string) error {
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		configDir := filepath.Join(home, ".privacy-toolkit")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		cfgFile = filepath.Join(configDir, "config.yaml")
	}

	viper.Set("default_k", config.DefaultK)
	viper.Set("default_output", config.DefaultOutput)
	viper.Set("default_format", config.DefaultFormat)
	viper.Set("missing_markers", config.MissingMarkers)
	viper.Set("postgres.host", config.Postgres.Host)
	viper.Set("postgres.port", config.Postgres.Port)
	viper.Set("postgres.database", config.Postgres.Database)
	viper.Set("postgres.username", config.Postgres.Username)
	viper.Set("postgres.password", config.Postgres.Password)
	viper.Set("postgres.ssl_mode", config.Postgres.SSLMode)
	viper.Set("postgres.table", config.Postgres.Table)
	viper.Set("preferences.group_color", config.Preferences.GroupColor)
	viper.Set("preferences.log_level", config.Preferences.LogLevel)

	return viper.WriteConfigAs(cfgFile)
}
