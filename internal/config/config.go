// Package config holds service configuration loaded from an optional YAML
// file and environment variables, env taking precedence.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for the monitor.
type Config struct {
	BaseDir            string
	DataDir            string
	LogDir             string
	DBPath             string
	HTTPPort           string
	CodesPath          string
	WorkerCount        int
	QueueSize          int
	CaptureIntervalSec int
	JobTimeoutSec      int
	BackfillLimit      int
	EnableWatcher      bool
	SkipMalformed      bool
}

type fileConfig struct {
	BaseDir            string `yaml:"base_dir"`
	DataDir            string `yaml:"data_dir"`
	LogDir             string `yaml:"log_dir"`
	DBPath             string `yaml:"db_path"`
	HTTPPort           string `yaml:"http_port"`
	CodesPath          string `yaml:"codes_path"`
	WorkerCount        *int   `yaml:"worker_count"`
	QueueSize          *int   `yaml:"queue_size"`
	CaptureIntervalSec *int   `yaml:"capture_interval_sec"`
	EnableWatcher      *bool  `yaml:"enable_watcher"`
	SkipMalformed      *bool  `yaml:"skip_malformed"`
}

const (
	defaultPort        = "8080"
	defaultWorkerCount = 2
	defaultQueueSize   = 64
	defaultIntervalSec = 60
	defaultJobTimeout  = 30
	maxBackfillLimit   = 64
	defaultBackfill    = 16
)

// Load reads configuration from an optional .env file, an optional YAML
// config file and environment variables, and applies sane defaults.
func Load() (Config, error) {
	LoadDotEnv(".env")

	cfg := Config{
		BaseDir:            ".",
		HTTPPort:           defaultPort,
		WorkerCount:        defaultWorkerCount,
		QueueSize:          defaultQueueSize,
		CaptureIntervalSec: defaultIntervalSec,
		JobTimeoutSec:      defaultJobTimeout,
		BackfillLimit:      defaultBackfill,
		EnableWatcher:      true,
	}

	configPath := getEnv("CONFIG_PATH", "config.yaml")
	if err := applyFileConfig(&cfg, configPath); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.BaseDir, "test_data")
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.BaseDir, "logs")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.BaseDir, "ksdmon.db")
	}
	cfg.WorkerCount = clampInt(cfg.WorkerCount, 1, 16)
	cfg.QueueSize = clampInt(cfg.QueueSize, cfg.WorkerCount, 1024)
	cfg.CaptureIntervalSec = clampInt(cfg.CaptureIntervalSec, 5, 3600)
	cfg.BackfillLimit = clampInt(cfg.BackfillLimit, 1, maxBackfillLimit)

	log.Printf("config: data_dir=%s log_dir=%s db=%s port=%s workers=%d",
		cfg.DataDir, cfg.LogDir, cfg.DBPath, cfg.HTTPPort, cfg.WorkerCount)
	return cfg, nil
}

func applyFileConfig(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.BaseDir != "" {
		cfg.BaseDir = fc.BaseDir
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.HTTPPort != "" {
		cfg.HTTPPort = fc.HTTPPort
	}
	if fc.CodesPath != "" {
		cfg.CodesPath = fc.CodesPath
	}
	if fc.WorkerCount != nil {
		cfg.WorkerCount = *fc.WorkerCount
	}
	if fc.QueueSize != nil {
		cfg.QueueSize = *fc.QueueSize
	}
	if fc.CaptureIntervalSec != nil {
		cfg.CaptureIntervalSec = *fc.CaptureIntervalSec
	}
	if fc.EnableWatcher != nil {
		cfg.EnableWatcher = *fc.EnableWatcher
	}
	if fc.SkipMalformed != nil {
		cfg.SkipMalformed = *fc.SkipMalformed
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.BaseDir = getEnv("BASE_DIR", cfg.BaseDir)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.CodesPath = getEnv("CODES_PATH", cfg.CodesPath)
	cfg.WorkerCount = getEnvInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.QueueSize = getEnvInt("QUEUE_SIZE", cfg.QueueSize)
	cfg.CaptureIntervalSec = getEnvInt("CAPTURE_INTERVAL_SEC", cfg.CaptureIntervalSec)
	cfg.JobTimeoutSec = getEnvInt("JOB_TIMEOUT_SEC", cfg.JobTimeoutSec)
	cfg.BackfillLimit = getEnvInt("BACKFILL_LIMIT", cfg.BackfillLimit)
	cfg.EnableWatcher = getEnvBool("ENABLE_WATCHER", cfg.EnableWatcher)
	cfg.SkipMalformed = getEnvBool("PARSE_SKIP_MALFORMED", cfg.SkipMalformed)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
