package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/shot-tracker/internal/common"
	"github.com/joseph-ayodele/shot-tracker/internal/entity"
)

// ParseShotMetrics extracts and validates a ShotMetrics record from the raw
// text a provider returned. Providers routinely wrap the JSON in prose or
// code fences, so the first balanced object literal is located and parsed.
// Validation is strict first, then lenient: keys the schema rejects are
// dropped (treated as absent) and the document is re-checked. An all-null
// result is valid; callers decide what it is worth.
func ParseShotMetrics(raw string, logger *slog.Logger) (entity.ShotMetrics, error) {
	if logger == nil {
		logger = slog.Default()
	}

	obj, ok := extractObjectLiteral(raw)
	if !ok {
		return entity.ShotMetrics{}, fmt.Errorf("%w: no object found", common.ErrParse)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return entity.ShotMetrics{}, fmt.Errorf("%w: malformed: %v", common.ErrParse, err)
	}

	schema := BuildShotJSONSchema()
	clean := []byte(obj)
	if err := ValidateJSONAgainstSchema(schema, clean); err != nil {
		sanitized, dropped := SanitizeMetricFields(doc)
		b, mErr := json.Marshal(sanitized)
		if mErr != nil {
			return entity.ShotMetrics{}, fmt.Errorf("%w: %v", common.ErrParse, mErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, b); vErr != nil {
			return entity.ShotMetrics{}, fmt.Errorf("%w: %v", common.ErrParse, vErr)
		}
		if len(dropped) > 0 {
			logger.Warn("llm.parse.sanitize_applied", "dropped", dropped)
		}
		clean = b
	}

	var m entity.ShotMetrics
	if err := json.Unmarshal(clean, &m); err != nil {
		return entity.ShotMetrics{}, fmt.Errorf("%w: %v", common.ErrParse, err)
	}
	return m, nil
}

// extractObjectLiteral returns the first syntactically balanced {...}
// substring of raw, honoring string literals and escapes so braces inside
// quoted values do not confuse the depth count.
func extractObjectLiteral(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inStr := false
	esc := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
