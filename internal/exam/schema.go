package exam

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// configSchema is the JSON Schema for exam config files.
var configSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"examId":           map[string]any{"type": "string"},
		"examName":         map[string]any{"type": "string"},
		"durationMinutes":  map[string]any{"type": "integer", "minimum": 1},
		"allowGoBack":      map[string]any{"type": "boolean"},
		"maxScore":         map[string]any{"type": "number", "exclusiveMinimum": 0},
		"passScore":        map[string]any{"type": "number", "minimum": 0},
		"penaltyForWrong":  map[string]any{"type": "boolean"},
		"penaltyPercent":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"goldScaleRatio":   map[string]any{"type": "number", "minimum": 0},
		"pointsScaleRatio": map[string]any{"type": "number", "minimum": 0},
		"sections": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type":            map[string]any{"type": "string", "enum": []any{"quiz", "experiment"}},
					"name":            map[string]any{"type": "string"},
					"maxScore":        map[string]any{"type": "number", "exclusiveMinimum": 0},
					"weight":          map[string]any{"type": "number", "exclusiveMinimum": 0},
					"subjectIndex":    map[string]any{"type": "integer", "minimum": 0},
					"chapterIndex":    map[string]any{"type": "integer", "minimum": 0},
					"questionCount":   map[string]any{"type": "integer", "minimum": 0},
					"shuffle":         map[string]any{"type": "boolean"},
					"experimentName":  map[string]any{"type": "string"},
					"requiredStepIds": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"pointPerStep":    map[string]any{"type": "number", "minimum": 0},
				},
				"required":             []any{"type", "maxScore", "weight"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"examId", "examName", "durationMinutes", "maxScore", "passScore", "sections"},
	"additionalProperties": false,
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// validateConfigJSON validates raw config JSON against configSchema.
func validateConfigJSON(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	compiled, err := getCompiledSchema()
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	if err := compiled.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// getCompiledSchema compiles configSchema once and caches it.
func getCompiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The jsonschema library expects a parsed JSON value (any),
		// not raw bytes. Marshal then unmarshal to get a clean any
		// representation.
		defBytes, err := json.Marshal(configSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var defParsed any
		if err := json.Unmarshal(defBytes, &defParsed); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		const schemaURL = "schema://exam-config.json"
		if err := c.AddResource(schemaURL, defParsed); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}
