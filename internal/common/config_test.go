package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults when no env vars set", func(t *testing.T) {
		cfg := LoadConfig()

		assert.Equal(t, 300, cfg.OCR.DPI)
		assert.Equal(t, "eng", cfg.OCR.TesseractLang)
		assert.Equal(t, []string{"general", "tabular"}, cfg.OCR.Modes)
		assert.Equal(t, 2*time.Minute, cfg.OCR.PageTimeout)
		assert.Equal(t, 90.0, cfg.Reconcile.SimilarityThreshold)
		assert.Equal(t, 0.7, cfg.Reconcile.ExistenceWeight)
		assert.Equal(t, 0.3, cfg.Reconcile.DetailWeight)
		assert.Equal(t, 40.0, cfg.Reconcile.BestMatchThreshold)
		assert.Equal(t, []string{"quantity", "wholesale_price"}, cfg.Reconcile.Fields)
		require.NoError(t, cfg.Validate())
	})

	t.Run("custom values from environment", func(t *testing.T) {
		t.Setenv("OCR_DPI", "200")
		t.Setenv("OCR_MODES", "general, ,")
		t.Setenv("OCR_PAGE_TIMEOUT", "45s")
		t.Setenv("RECONCILE_SIMILARITY_THRESHOLD", "85.5")
		t.Setenv("RECONCILE_FIELDS", "quantity,retail_price")
		t.Setenv("OCR_PREPROCESS", "false")

		cfg := LoadConfig()

		assert.Equal(t, 200, cfg.OCR.DPI)
		assert.Equal(t, []string{"general"}, cfg.OCR.Modes)
		assert.Equal(t, 45*time.Second, cfg.OCR.PageTimeout)
		assert.Equal(t, 85.5, cfg.Reconcile.SimilarityThreshold)
		assert.Equal(t, []string{"quantity", "retail_price"}, cfg.Reconcile.Fields)
		assert.False(t, cfg.OCR.Preprocess)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		t.Setenv("OCR_DPI", "lots")
		t.Setenv("OCR_PAGE_TIMEOUT", "soon")

		cfg := LoadConfig()

		assert.Equal(t, 300, cfg.OCR.DPI)
		assert.Equal(t, 2*time.Minute, cfg.OCR.PageTimeout)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown ocr mode",
			mutate:  func(c *Config) { c.OCR.Modes = []string{"general", "handwriting"} },
			wantErr: "OCR_MODES",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Reconcile.SimilarityThreshold = 120 },
			wantErr: "RECONCILE_SIMILARITY_THRESHOLD",
		},
		{
			name: "weights must sum to one",
			mutate: func(c *Config) {
				c.Reconcile.ExistenceWeight = 0.5
				c.Reconcile.DetailWeight = 0.3
			},
			wantErr: "must equal 1",
		},
		{
			name:    "missing dsn",
			mutate:  func(c *Config) { c.Database.DSN = "" },
			wantErr: "DB_URL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
