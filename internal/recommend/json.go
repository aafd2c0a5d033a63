package recommend

import (
	"encoding/json/v2"
	"log/slog"
	"strings"

	"github.com/bookwormapp/bookworm-server/internal/errors"
)

// stripFences removes accidental markdown code fences that models sometimes
// wrap their output in despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseResilient parses model output into v, with a recovery attempt if the
// response was truncated. A cut-off mid-JSON means the model hit its token
// limit; whatever complete data precedes the truncation is salvaged rather
// than failing the whole request.
func parseResilient(raw, label string, v any, logger *slog.Logger) error {
	cleaned := stripFences(raw)
	firstErr := json.Unmarshal([]byte(cleaned), v)
	if firstErr == nil {
		return nil
	}
	if logger != nil {
		logger.Warn("model output is not valid JSON, attempting truncation recovery",
			"label", label,
			"error", firstErr,
		)
	}

	if strings.HasPrefix(cleaned, "[") {
		if salvaged := salvageArray(cleaned); salvaged != "" {
			if err := json.Unmarshal([]byte(salvaged), v); err == nil {
				if logger != nil {
					logger.Warn("recovered complete objects from truncated response", "label", label)
				}
				return nil
			}
		}
	}

	if strings.HasPrefix(cleaned, "{") {
		if closed := closeTruncatedObject(cleaned); closed != "" {
			if err := json.Unmarshal([]byte(closed), v); err == nil {
				if logger != nil {
					logger.Warn("closed a truncated object response", "label", label)
				}
				return nil
			}
		}
	}

	if logger != nil {
		logger.Error("could not recover truncated model output",
			"label", label,
			"raw", snippet(raw, 500),
		)
	}
	return errors.Wrapf(firstErr, errors.CodeUpstream,
		"the model response was cut off before it finished; snippet: %s", snippet(raw, 120))
}

// salvageArray extracts every complete top-level {...} object from a
// truncated array and rebuilds a valid array from them. Returns "" when
// nothing could be salvaged.
func salvageArray(cleaned string) string {
	var (
		objects  []string
		depth    int
		objStart = -1
	)
	for i, ch := range cleaned {
		switch ch {
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && objStart >= 0 {
				candidate := cleaned[objStart : i+1]
				var probe map[string]any
				if json.Unmarshal([]byte(candidate), &probe) == nil {
					objects = append(objects, candidate)
				}
				objStart = -1
			}
		}
	}
	if len(objects) == 0 {
		return ""
	}
	return "[" + strings.Join(objects, ",") + "]"
}

// closeTruncatedObject walks backwards through a truncated object looking for
// the last point where dropping the tail and closing the brace yields valid
// JSON. Returns "" when no prefix parses.
func closeTruncatedObject(cleaned string) string {
	for i := len(cleaned) - 1; i > 0; i-- {
		candidate := strings.TrimRight(cleaned[:i], " \t\r\n")
		candidate = strings.TrimRight(candidate, ",") + "\n}"
		var probe map[string]any
		if json.Unmarshal([]byte(candidate), &probe) == nil {
			return candidate
		}
	}
	return ""
}
