package rulebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/tradedocs/internal/customcode"
	"github.com/joseph-ayodele/tradedocs/internal/extract"
)

// Rulebook is the data that tunes extraction and code synthesis for one deployment.
type Rulebook struct {
	Extraction extract.RulesConfig `json:"extraction"`
	Codes      customcode.Tables   `json:"codes"`
}

// Default returns the built-in rulebook.
func Default() *Rulebook {
	return &Rulebook{
		Extraction: extract.DefaultRulesConfig(),
		Codes:      customcode.DefaultTables(),
	}
}

// Load reads path and overlays it on the defaults. An empty path yields the defaults.
func Load(path string, logger *slog.Logger) (*Rulebook, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	rb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rulebook %s: %w", path, err)
	}
	logger.Info("rulebook loaded", "path", path,
		"colors", len(rb.Extraction.Colors), "brands", len(rb.Extraction.Brands),
		"product_overrides", len(rb.Codes.ProductOverrides))
	return rb, nil
}

// Parse validates data against Schema and overlays it on the defaults.
// Lists present in data replace the default lists.
func Parse(data []byte) (*Rulebook, error) {
	if err := validate(Schema(), data); err != nil {
		return nil, err
	}
	rb := Default()
	if err := json.Unmarshal(data, rb); err != nil {
		return nil, fmt.Errorf("decode rulebook: %w", err)
	}
	if _, err := rb.Rules(); err != nil {
		return nil, err
	}
	return rb, nil
}

// Rules compiles the extraction section.
func (rb *Rulebook) Rules() (*extract.Rules, error) {
	return extract.Compile(rb.Extraction)
}

// Synthesizer builds a code synthesizer from the codes section.
func (rb *Rulebook) Synthesizer() *customcode.Synthesizer {
	return customcode.NewSynthesizer(rb.Codes)
}

func validate(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rulebook.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rulebook.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal rulebook: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("rulebook does not match schema: %w", err)
	}
	return nil
}
