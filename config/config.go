package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the runtime settings for the server. Values come from flags
// and from TODO_* environment variables, flags winning.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// ProxyCount is the number of proxies positioned in front of the server.
	// It is used to interpret X-Forwarded-For headers.
	ProxyCount int

	// DatabasePath is the SQLite database file. ":memory:" works too.
	DatabasePath string

	// StaticDir is served under /.well-known when it exists.
	StaticDir string

	// AllowedOrigin is handed to the CORS middleware.
	AllowedOrigin string

	// LogLevel is a logrus level name ("debug", "info", ...).
	LogLevel string
}

// Init reads the configuration out of viper.
func Init() (*Config, error) {
	viper.SetDefault("port", 8080)
	viper.SetDefault("proxy-count", 0)
	viper.SetDefault("database", "sqlite.db")
	viper.SetDefault("static-dir", "static")
	viper.SetDefault("allowed-origin", "*")
	viper.SetDefault("log-level", "info")

	viper.SetEnvPrefix("todo")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config := &Config{
		Port:          viper.GetInt("port"),
		ProxyCount:    viper.GetInt("proxy-count"),
		DatabasePath:  viper.GetString("database"),
		StaticDir:     viper.GetString("static-dir"),
		AllowedOrigin: viper.GetString("allowed-origin"),
		LogLevel:      viper.GetString("log-level"),
	}
	return config, nil
}
