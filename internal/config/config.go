package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"adokpi/internal/azdo"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete runtime configuration.
type AppConfig struct {
	AzDO     azdo.Config
	DataPath string
	LogDir   string

	// AnalysisConfigPath points at the JSON analysis configuration.
	AnalysisConfigPath string

	// FetchWorkers bounds the parallel revision fetch pool.
	FetchWorkers int
	// FetchBatchSize is the number of items handed to one fetch worker.
	FetchBatchSize int
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	analysisPath := getEnv("ANALYSIS_CONFIG", filepath.Join(dataPath, "analysis.json"))

	delaySecs, _ := strconv.Atoi(getEnv("AZDO_REQUEST_DELAY_SECONDS", "1"))
	retries, _ := strconv.Atoi(getEnv("AZDO_MAX_RETRIES", "3"))

	cfg := &AppConfig{
		AzDO: azdo.Config{
			Organization: getEnv("AZDO_ORG", ""),
			PAT:          getEnv("AZDO_PAT", ""),
			BaseURL:      getEnv("AZDO_BASE_URL", ""),
			RequestDelay: time.Duration(delaySecs) * time.Second,
			MaxRetries:   retries,
		},
		DataPath:           dataPath,
		LogDir:             logDir,
		AnalysisConfigPath: analysisPath,
		FetchWorkers:       getEnvInt("FETCH_WORKERS", 10),
		FetchBatchSize:     getEnvInt("FETCH_BATCH_SIZE", 50),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
