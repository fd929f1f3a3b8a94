/**
 * @description
 * This package handles the configuration management for the gateway. It uses
 * the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings. Three PostgreSQL databases are configured independently (the
 * pipeline keeps evaluation results, processor config, and event history in
 * separate stores) with DSN helpers for each.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the gateway.
// These values are loaded from environment variables.
type Config struct {
	ServerPort        string `mapstructure:"SERVER_PORT"`
	APIKeys           string `mapstructure:"API_KEYS"`
	TMSBaseURL        string `mapstructure:"TMS_BASE_URL"`
	TMSTimeoutSeconds int    `mapstructure:"TMS_TIMEOUT_SECONDS"`
	DefaultTenantID   string `mapstructure:"DEFAULT_TENANT_ID"`

	EvalDBHost     string `mapstructure:"EVAL_DB_HOST"`
	EvalDBPort     string `mapstructure:"EVAL_DB_PORT"`
	EvalDBName     string `mapstructure:"EVAL_DB_NAME"`
	EvalDBUser     string `mapstructure:"EVAL_DB_USER"`
	EvalDBPassword string `mapstructure:"EVAL_DB_PASSWORD"`

	ConfigDBHost     string `mapstructure:"CONFIG_DB_HOST"`
	ConfigDBPort     string `mapstructure:"CONFIG_DB_PORT"`
	ConfigDBName     string `mapstructure:"CONFIG_DB_NAME"`
	ConfigDBUser     string `mapstructure:"CONFIG_DB_USER"`
	ConfigDBPassword string `mapstructure:"CONFIG_DB_PASSWORD"`

	EventDBHost     string `mapstructure:"EVENT_DB_HOST"`
	EventDBPort     string `mapstructure:"EVENT_DB_PORT"`
	EventDBName     string `mapstructure:"EVENT_DB_NAME"`
	EventDBUser     string `mapstructure:"EVENT_DB_USER"`
	EventDBPassword string `mapstructure:"EVENT_DB_PASSWORD"`

	K8sNamespace  string `mapstructure:"K8S_NAMESPACE"`
	K8sInCluster  bool   `mapstructure:"K8S_IN_CLUSTER"`
	K8sKubeconfig string `mapstructure:"K8S_KUBECONFIG"`

	UsersFile      string `mapstructure:"USERS_FILE"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTExpireHours int    `mapstructure:"JWT_EXPIRE_HOURS"`
	AdminEmail     string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword  string `mapstructure:"ADMIN_PASSWORD"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TMS_BASE_URL", "http://localhost:5000")
	viper.SetDefault("TMS_TIMEOUT_SECONDS", 30)
	viper.SetDefault("DEFAULT_TENANT_ID", "DEFAULT")
	viper.SetDefault("EVAL_DB_HOST", "localhost")
	viper.SetDefault("EVAL_DB_PORT", "5432")
	viper.SetDefault("EVAL_DB_NAME", "evaluation")
	viper.SetDefault("EVAL_DB_USER", "postgres")
	viper.SetDefault("CONFIG_DB_HOST", "localhost")
	viper.SetDefault("CONFIG_DB_PORT", "5432")
	viper.SetDefault("CONFIG_DB_NAME", "configuration")
	viper.SetDefault("CONFIG_DB_USER", "postgres")
	viper.SetDefault("EVENT_DB_HOST", "localhost")
	viper.SetDefault("EVENT_DB_PORT", "5432")
	viper.SetDefault("EVENT_DB_NAME", "event_history")
	viper.SetDefault("EVENT_DB_USER", "postgres")
	viper.SetDefault("K8S_NAMESPACE", "processor")
	viper.SetDefault("K8S_IN_CLUSTER", false)
	viper.SetDefault("USERS_FILE", "users.json")
	viper.SetDefault("JWT_EXPIRE_HOURS", 24)
	viper.SetDefault("ADMIN_EMAIL", "admin@example.com")
	viper.SetDefault("ADMIN_PASSWORD", "admin123")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("API_KEYS")
	_ = viper.BindEnv("TMS_BASE_URL")
	_ = viper.BindEnv("TMS_TIMEOUT_SECONDS")
	_ = viper.BindEnv("DEFAULT_TENANT_ID")
	_ = viper.BindEnv("EVAL_DB_HOST")
	_ = viper.BindEnv("EVAL_DB_PORT")
	_ = viper.BindEnv("EVAL_DB_NAME")
	_ = viper.BindEnv("EVAL_DB_USER")
	_ = viper.BindEnv("EVAL_DB_PASSWORD")
	_ = viper.BindEnv("CONFIG_DB_HOST")
	_ = viper.BindEnv("CONFIG_DB_PORT")
	_ = viper.BindEnv("CONFIG_DB_NAME")
	_ = viper.BindEnv("CONFIG_DB_USER")
	_ = viper.BindEnv("CONFIG_DB_PASSWORD")
	_ = viper.BindEnv("EVENT_DB_HOST")
	_ = viper.BindEnv("EVENT_DB_PORT")
	_ = viper.BindEnv("EVENT_DB_NAME")
	_ = viper.BindEnv("EVENT_DB_USER")
	_ = viper.BindEnv("EVENT_DB_PASSWORD")
	_ = viper.BindEnv("K8S_NAMESPACE")
	_ = viper.BindEnv("K8S_IN_CLUSTER")
	_ = viper.BindEnv("K8S_KUBECONFIG")
	_ = viper.BindEnv("USERS_FILE")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("JWT_EXPIRE_HOURS")
	_ = viper.BindEnv("ADMIN_EMAIL")
	_ = viper.BindEnv("ADMIN_PASSWORD")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if config.TMSTimeoutSeconds <= 0 {
		config.TMSTimeoutSeconds = 30
	}
	if config.JWTExpireHours <= 0 {
		config.JWTExpireHours = 24
	}
	config.TMSBaseURL = strings.TrimRight(strings.TrimSpace(config.TMSBaseURL), "/")
	config.DefaultTenantID = strings.TrimSpace(config.DefaultTenantID)
	if config.DefaultTenantID == "" {
		config.DefaultTenantID = "DEFAULT"
	}

	return
}

// ParsedAPIKeys splits the comma-separated API_KEYS value, dropping blanks.
func (c Config) ParsedAPIKeys() []string {
	var keys []string
	for _, key := range strings.Split(c.APIKeys, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func dsn(host, port, name, user, password string) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, password, host, port, name)
}

// EvalDSN returns the connection string for the evaluation-results database.
func (c Config) EvalDSN() string {
	return dsn(c.EvalDBHost, c.EvalDBPort, c.EvalDBName, c.EvalDBUser, c.EvalDBPassword)
}

// ConfigDSN returns the connection string for the processor-configuration database.
func (c Config) ConfigDSN() string {
	return dsn(c.ConfigDBHost, c.ConfigDBPort, c.ConfigDBName, c.ConfigDBUser, c.ConfigDBPassword)
}

// EventDSN returns the connection string for the event-history database.
func (c Config) EventDSN() string {
	return dsn(c.EventDBHost, c.EventDBPort, c.EventDBName, c.EventDBUser, c.EventDBPassword)
}
