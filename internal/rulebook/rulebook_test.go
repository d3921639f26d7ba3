package rulebook_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradedocs/internal/customcode"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/extract"
	"github.com/joseph-ayodele/tradedocs/internal/rulebook"
)

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	rb, err := rulebook.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, rulebook.Default(), rb)
}

func TestParse_OverlaysDefaults(t *testing.T) {
	rb, err := rulebook.Parse([]byte(`{
		"extraction": {"style_hash_fallback": true, "literal_sizes": ["S","M"]},
		"codes": {"vendor": "VX", "brands": [{"phrase": "ACME", "code": "AC"}]}
	}`))
	require.NoError(t, err)

	assert.True(t, rb.Extraction.StyleHashFallback)
	assert.Equal(t, []string{"S", "M"}, rb.Extraction.LiteralSizes)
	assert.Equal(t, extract.DefaultRulesConfig().Colors, rb.Extraction.Colors)
	assert.Equal(t, "VX", rb.Codes.Vendor)
	assert.Equal(t, customcode.DefaultTables().Batch, rb.Codes.Batch)
	assert.Equal(t, []customcode.Mapping{{Phrase: "ACME", Code: "AC"}}, rb.Codes.Brands)

	code := rb.Synthesizer().Synthesize(entity.ProductRecord{ProductCode: "AJ1", Brand: "Acme Corp"}, "40")
	assert.Equal(t, "00B1VX-XXACWM01-140", code)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown key", `{"extraction": {"colour": []}}`},
		{"wrong type", `{"extraction": {"size_min": "30"}}`},
		{"bad code", `{"codes": {"brands": [{"phrase": "X", "code": "lower"}]}}`},
		{"bad regexp", `{"extraction": {"product_code_pattern": "("}}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rulebook.Parse([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"extraction": {"size_min": 35, "size_max": 47}}`), 0o600))

	rb, err := rulebook.Load(path, nil)
	require.NoError(t, err)
	rules, err := rb.Rules()
	require.NoError(t, err)
	assert.Equal(t, 35, rules.SizeMin)
	assert.Equal(t, 47, rules.SizeMax)

	_, err = rulebook.Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
}
