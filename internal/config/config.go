package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultTimeout = 15 * time.Second
	envParentDepth = 2
)

// Config holds everything the CLI needs to build a form controller.
type Config struct {
	Env          string
	LogLevel     string
	LookupURL    string
	RegisterURL  string
	Timeout      time.Duration
	MessagesPath string
	MetricsAddr  string
	InputPath    string

	// EnvFile is the .env file that was loaded, if any.
	EnvFile string
	// Warnings collects recoverable problems found while loading. The logger
	// does not exist yet at that point, so callers report them.
	Warnings []string
}

// Load reads a .env file from the working directory or one of its parents,
// then the environment, then args. Later sources win.
func Load(args []string) (*Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return load(dir, args)
}

func load(dir string, args []string) (*Config, error) {
	cfg := &Config{}
	cfg.EnvFile = loadDotEnv(dir)

	cfg.Env = getEnv("REGFORM_ENV", "dev")
	cfg.LogLevel = getEnv("REGFORM_LOG_LEVEL", "info")
	cfg.LookupURL = getEnv("REGFORM_LOOKUP_URL", "")
	cfg.RegisterURL = getEnv("REGFORM_REGISTER_URL", "")
	cfg.MessagesPath = getEnv("REGFORM_MESSAGES", "")
	cfg.MetricsAddr = getEnv("REGFORM_METRICS_ADDR", "")
	cfg.Timeout = cfg.getEnvDuration("REGFORM_TIMEOUT", defaultTimeout)

	fs := flag.NewFlagSet("regform", flag.ContinueOnError)
	fs.StringVar(&cfg.Env, "env", cfg.Env, "environment (dev or prod)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LookupURL, "lookup-url", cfg.LookupURL, "zipcode lookup base URL")
	fs.StringVar(&cfg.RegisterURL, "register-url", cfg.RegisterURL, "registration endpoint")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout for each remote call")
	fs.StringVar(&cfg.MessagesPath, "messages", cfg.MessagesPath, "message catalog file (YAML or JSON)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	fs.StringVar(&cfg.InputPath, "input", "", "submit the JSON record in this file instead of prompting")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("config: unexpected arguments %v", fs.Args())
	}

	cfg.validate()
	return cfg, nil
}

func (c *Config) validate() {
	if c.Env != "dev" && c.Env != "prod" {
		c.warnf("invalid environment %q, using prod", c.Env)
		c.Env = "prod"
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		c.warnf("invalid log level %q, using info", c.LogLevel)
		c.LogLevel = "info"
	}
	if c.Timeout <= 0 {
		c.warnf("invalid timeout %s, using %s", c.Timeout, defaultTimeout)
		c.Timeout = defaultTimeout
	}
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// loadDotEnv tries dir and up to two parents. Variables already present in the
// environment are left alone.
func loadDotEnv(dir string) string {
	for i := 0; i <= envParentDepth; i++ {
		path := filepath.Join(dir, ".env")
		if err := godotenv.Load(path); err == nil {
			return path
		}
		dir = filepath.Join(dir, "..")
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		c.warnf("invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
