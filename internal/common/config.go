package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Store    StoreConfig
	OCR      OCRConfig
	Pipeline PipelineConfig
}

// StoreConfig holds the embedded document store configuration
type StoreConfig struct {
	Path               string
	QuarantineCapacity int
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	DPI           int
}

// PipelineConfig holds per-run pipeline tuning
type PipelineConfig struct {
	TargetPDFBytes   int
	MaxCompressRound int
	RemoteTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:               getEnv("SGK_STORE_PATH", "./sgk-docflow.db"),
			QuarantineCapacity: getEnvAsInt("SGK_QUARANTINE_CAPACITY", 50),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("SGK_TESSERACT", "tesseract"),
			TesseractLang: getEnv("SGK_TESSERACT_LANG", "tur+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("SGK_OCR_DPI", 300),
		},
		Pipeline: PipelineConfig{
			TargetPDFBytes:   getEnvAsInt("SGK_TARGET_PDF_BYTES", 300<<10),
			MaxCompressRound: getEnvAsInt("SGK_MAX_COMPRESS_ROUNDS", 5),
			RemoteTimeout:    getEnvAsDuration("SGK_REMOTE_TIMEOUT", 5*time.Second),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return NewAppError("CONFIG_ERROR", "SGK_STORE_PATH is required", ErrInvalidInput)
	}
	if c.Store.QuarantineCapacity <= 0 {
		return NewAppError("CONFIG_ERROR", "SGK_QUARANTINE_CAPACITY must be positive", ErrInvalidInput)
	}
	if c.Pipeline.TargetPDFBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "SGK_TARGET_PDF_BYTES must be positive", ErrInvalidInput)
	}
	return nil
}
