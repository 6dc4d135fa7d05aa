package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	DefaultPort     = 8790
	DefaultLogLevel = "info"

	EnvLogLevel = "CAMWORK_LOG_LEVEL"
	EnvPort     = "CAMWORK_PORT"
	EnvDBPath   = "CAMWORK_DB"
	EnvWorkers  = "CAMWORK_WORKERS"
	EnvTuning   = "CAMWORK_TUNING"
)

// Runtime is the process level configuration. Zero Workers means "size from the host".
type Runtime struct {
	LogLevel   string
	Port       int
	DBPath     string
	Workers    int
	TuningPath string
}

// FromEnv builds a Runtime from defaults and environment overrides
func FromEnv() (Runtime, error) {
	cfg := Runtime{
		LogLevel: DefaultLogLevel,
		Port:     DefaultPort,
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.LogLevel = ll
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Runtime{}, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return Runtime{}, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.Port = port
	}

	cfg.DBPath = os.Getenv(EnvDBPath)
	cfg.TuningPath = os.Getenv(EnvTuning)

	if w := os.Getenv(EnvWorkers); w != "" {
		workers, err := strconv.Atoi(w)
		if err != nil {
			return Runtime{}, fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		if workers < 0 {
			return Runtime{}, fmt.Errorf("invalid %s: must not be negative", EnvWorkers)
		}
		cfg.Workers = workers
	}

	return cfg, nil
}
