package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdblocks/internal/config"
)

const envPrefix = "MDBLOCKS_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MDBLOCKS_CONFIG: config file name or path
	Timeout    time.Duration // MDBLOCKS_TIMEOUT: PDF generation timeout
	OutputDir  string        // MDBLOCKS_OUTPUT_DIR: default output directory
	PageSize   string        // MDBLOCKS_PAGE_SIZE: a3, a4, a5, letter, legal
	Lang       string        // MDBLOCKS_LANG: hyphenation language
	LogLevel   string        // MDBLOCKS_LOG_LEVEL: none, normal, debug
	Workers    int           // MDBLOCKS_WORKERS: parallel workers
}

// knownEnvVars lists valid MDBLOCKS_* environment variables.
var knownEnvVars = map[string]bool{
	"MDBLOCKS_CONFIG":     true,
	"MDBLOCKS_CONTAINER":  true,
	"MDBLOCKS_TIMEOUT":    true,
	"MDBLOCKS_OUTPUT_DIR": true,
	"MDBLOCKS_PAGE_SIZE":  true,
	"MDBLOCKS_LANG":       true,
	"MDBLOCKS_LOG_LEVEL":  true,
	"MDBLOCKS_WORKERS":    true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable durations and counts are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("MDBLOCKS_CONFIG"),
		OutputDir:  os.Getenv("MDBLOCKS_OUTPUT_DIR"),
		PageSize:   os.Getenv("MDBLOCKS_PAGE_SIZE"),
		Lang:       os.Getenv("MDBLOCKS_LANG"),
		LogLevel:   os.Getenv("MDBLOCKS_LOG_LEVEL"),
	}

	if timeout := os.Getenv("MDBLOCKS_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := os.Getenv("MDBLOCKS_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars prints a warning for each unrecognized MDBLOCKS_* variable.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config values with the variables that are set.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.PageSize != "" {
		cfg.Page.Size = env.PageSize
	}
	if env.Lang != "" {
		cfg.Document.Lang = env.Lang
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
}
