package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/shot-tracker/constants"
)

// BuildShotJSONSchema returns a JSON-Schema (draft 2020-12 subset) for the
// seven-key shot metrics object: every metric is number-or-null, 'units' is
// a string-to-string map, and nothing else is allowed. Sanitization strips
// offenders before the schema is re-checked, so a validation failure after
// sanitizing means the document is unusable.
func BuildShotJSONSchema() map[string]any {
	props := map[string]any{}
	for _, k := range constants.MetricKeys {
		props[k] = map[string]any{"type": []string{"number", "null"}}
	}
	props[constants.UnitsKey] = map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// SanitizeMetricFields projects a decoded provider document onto the shot
// schema:
//   - unknown keys are removed
//   - metric keys that are not numeric-or-null are removed (absent, per the
//     schema contract — never an error)
//   - the units object keeps only string values; a non-object 'units' is
//     dropped entirely
//
// It returns the cleaned document and the list of removed keys.
func SanitizeMetricFields(doc map[string]any) (map[string]any, []string) {
	out := make(map[string]any, len(doc))
	var dropped []string

	for k, v := range doc {
		switch {
		case constants.IsMetricKey(k):
			switch v.(type) {
			case float64, nil:
				out[k] = v
			default:
				dropped = append(dropped, k+"(type)")
			}
		case k == constants.UnitsKey:
			obj, ok := v.(map[string]any)
			if !ok {
				dropped = append(dropped, k+"(type)")
				continue
			}
			units := make(map[string]any, len(obj))
			for uk, uv := range obj {
				if s, ok := uv.(string); ok {
					units[uk] = s
				} else {
					dropped = append(dropped, k+"."+uk+"(type)")
				}
			}
			out[k] = units
		default:
			dropped = append(dropped, k+"(unknown)")
		}
	}
	return out, dropped
}
