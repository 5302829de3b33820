package llm

import (
	"encoding/json"
	"strings"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/domain"
)

// ParseJSONObject decodes a model reply as a JSON object. When the reply is
// not valid JSON it retries on the slice from the first '{' to the last '}',
// which strips code fences and chatter around the payload. A reply that is
// valid JSON but not an object is rejected without slicing.
func ParseJSONObject(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, domain.ParseError("model reply is not a JSON object", nil)
		}
		return obj, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return nil, domain.ParseError("model reply contains no JSON object", nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, domain.ParseError("failed to repair model reply", err)
	}
	if obj == nil {
		return nil, domain.ParseError("model reply is not a JSON object", nil)
	}
	return obj, nil
}
