package rulebook

// Schema returns the JSON-Schema a rulebook file must satisfy. Every key is
// optional; absent keys keep their built-in defaults.
func Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"extraction": extractionSchema(),
			"codes":      codesSchema(),
		},
	}
}

func extractionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"product_code_pattern": nonEmptyString(),
			"noise_glyphs":         stringList(),
			"style_hash_fallback":  map[string]any{"type": "boolean"},
			"colors":               stringList(),
			"brands":               stringList(),
			"season_pattern":       nonEmptyString(),
			"currencies":           stringList(),
			"origin_stop_labels":   stringList(),
			"size_min":             map[string]any{"type": "integer", "minimum": 1},
			"size_max":             map[string]any{"type": "integer", "minimum": 1},
			"literal_sizes":        stringList(),
			"quantity_markers":     stringList(),
			"total_labels":         stringList(),
		},
	}
}

func codesSchema() map[string]any {
	mapping := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"phrase", "code"},
		"properties": map[string]any{
			"phrase": nonEmptyString(),
			"code":   code(),
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"batch":          map[string]any{"type": "string"},
			"vendor":         map[string]any{"type": "string"},
			"sale_type":      map[string]any{"type": "string"},
			"line":           map[string]any{"type": "string"},
			"sub_category":   map[string]any{"type": "string"},
			"default_season": map[string]any{"type": "string", "minLength": 1, "maxLength": 1},
			"sentinel":       code(),
			"brands":         map[string]any{"type": "array", "items": mapping},
			"categories":     map[string]any{"type": "array", "items": mapping},
			"season_overrides": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"color", "season"},
					"properties": map[string]any{
						"color":  nonEmptyString(),
						"season": map[string]any{"type": "string", "minLength": 1, "maxLength": 1},
					},
				},
			},
			"product_overrides": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"product_code", "color", "prefix"},
					"properties": map[string]any{
						"product_code": nonEmptyString(),
						"color":        nonEmptyString(),
						"prefix":       nonEmptyString(),
					},
				},
			},
			"item_prefixes": stringList(),
		},
	}
}

func nonEmptyString() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": nonEmptyString()}
}

// two uppercase letters/digits
func code() map[string]any {
	return map[string]any{"type": "string", "pattern": `^[A-Z0-9]{2}$`}
}
