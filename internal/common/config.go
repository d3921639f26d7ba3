package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is built once at process
// start and handed to constructors; no component reads the environment itself.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	OCR       OCRConfig
	Pipeline  PipelineConfig
	Reconcile ReconcileConfig
	Queue     QueueConfig
	Rulebook  RulebookConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
}

// OCRConfig holds rasterization and recognition configuration
type OCRConfig struct {
	Pdftoppm      string
	Tesseract     string
	Magick        string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
	Preprocess    bool
	GeneralPSM    int
	TabularPSM    int
	Modes         []string
	PageTimeout   time.Duration
}

// PipelineConfig holds document assembly configuration
type PipelineConfig struct {
	Workers           int
	TempRoot          string
	MinPageConfidence float32
}

// ReconcileConfig holds reconciliation tunables
type ReconcileConfig struct {
	SimilarityThreshold float64
	ExistenceWeight     float64
	DetailWeight        float64
	BestMatchThreshold  float64
	Fields              []string
}

// QueueConfig holds background processing configuration
type QueueConfig struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
	InboxDir   string
	Debounce   time.Duration
}

// RulebookConfig points at an optional rulebook override file
type RulebookConfig struct {
	Path string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "file:tradedocs.db?_pragma=foreign_keys(1)"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Magick:        getEnv("MAGICK_BIN", "magick"),
			TesseractLang: getEnv("OCR_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			Preprocess:    getEnvAsBool("OCR_PREPROCESS", true),
			GeneralPSM:    getEnvAsInt("OCR_GENERAL_PSM", 3),
			TabularPSM:    getEnvAsInt("OCR_TABULAR_PSM", 6),
			Modes:         getEnvAsList("OCR_MODES", []string{"general", "tabular"}),
			PageTimeout:   getEnvAsDuration("OCR_PAGE_TIMEOUT", 2*time.Minute),
		},
		Pipeline: PipelineConfig{
			Workers:           getEnvAsInt("PIPELINE_WORKERS", 1),
			TempRoot:          getEnv("PIPELINE_TEMP_ROOT", ""),
			MinPageConfidence: getEnvAsFloat32("PIPELINE_MIN_PAGE_CONFIDENCE", 0.4),
		},
		Reconcile: ReconcileConfig{
			SimilarityThreshold: getEnvAsFloat64("RECONCILE_SIMILARITY_THRESHOLD", 90),
			ExistenceWeight:     getEnvAsFloat64("RECONCILE_EXISTENCE_WEIGHT", 0.7),
			DetailWeight:        getEnvAsFloat64("RECONCILE_DETAIL_WEIGHT", 0.3),
			BestMatchThreshold:  getEnvAsFloat64("RECONCILE_BEST_MATCH_THRESHOLD", 40),
			Fields:              getEnvAsList("RECONCILE_FIELDS", []string{"quantity", "wholesale_price"}),
		},
		Queue: QueueConfig{
			Workers:    getEnvAsInt("QUEUE_WORKERS", 2),
			Size:       getEnvAsInt("QUEUE_SIZE", 64),
			JobTimeout: getEnvAsDuration("QUEUE_JOB_TIMEOUT", 15*time.Minute),
			InboxDir:   getEnv("INBOX_DIR", ""),
			Debounce:   getEnvAsDuration("INBOX_DEBOUNCE", 2*time.Second),
		},
		Rulebook: RulebookConfig{
			Path: getEnv("RULEBOOK_PATH", ""),
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DB_URL", c.Database.DSN, Required).
		Field("GRPC_ADDR", c.Server.GRPCAddr, Required).
		Field("OCR_DPI", c.OCR.DPI, Between(72, 1200)).
		Field("OCR_MODES", c.OCR.Modes, OneOf("general", "tabular")).
		Field("PIPELINE_WORKERS", c.Pipeline.Workers, Between(1, 64)).
		Field("RECONCILE_SIMILARITY_THRESHOLD", c.Reconcile.SimilarityThreshold, Between(0, 100)).
		Field("RECONCILE_BEST_MATCH_THRESHOLD", c.Reconcile.BestMatchThreshold, Between(0, 100)).
		Field("RECONCILE_EXISTENCE_WEIGHT", c.Reconcile.ExistenceWeight, Between(0, 1)).
		Field("RECONCILE_DETAIL_WEIGHT", c.Reconcile.DetailWeight, Between(0, 1))
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	if w := c.Reconcile.ExistenceWeight + c.Reconcile.DetailWeight; w < 0.999 || w > 1.001 {
		return NewAppError("CONFIG_ERROR", "RECONCILE_EXISTENCE_WEIGHT + RECONCILE_DETAIL_WEIGHT must equal 1", ErrInvalidInput)
	}
	return nil
}
