package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Strategy pulls a text value out of a decoded JSON payload. It reports false
// when the payload does not have the shape it looks for.
type Strategy func(payload any) (string, bool)

// Path returns a Strategy that walks payload by object keys (string) and array
// indexes (int) and succeeds if it lands on a string, even an empty one.
// Blank text is left for the caller to reject.
func Path(steps ...any) Strategy {
	return func(payload any) (string, bool) {
		cur := payload
		for _, step := range steps {
			switch s := step.(type) {
			case string:
				obj, ok := cur.(map[string]any)
				if !ok {
					return "", false
				}
				if cur, ok = obj[s]; !ok {
					return "", false
				}
			case int:
				arr, ok := cur.([]any)
				if !ok || s < 0 || s >= len(arr) {
					return "", false
				}
				cur = arr[s]
			default:
				return "", false
			}
		}
		text, ok := cur.(string)
		return text, ok
	}
}

// Strategies tried for each backend, in order.
var (
	localStrategies = []Strategy{
		Path("response"),
	}

	geminiStrategies = []Strategy{
		Path("candidates", 0, "content", "parts", 0, "text"),
		Path("candidates", 0, "content", 0, "parts", 0, "text"),
		Path("output", 0, "content", 0, "text"),
		Path("candidates", 0, "text"),
	}

	openAIStrategies = []Strategy{
		Path("choices", 0, "message", "content"),
	}

	routerStrategies = []Strategy{
		Path(0, "generated_text"),
		Path("generated_text"),
	}
)

// Normalize decodes raw and returns the first value produced by strategies.
// It never fails: a body that is not JSON, or matches no strategy, is
// returned as text.
func Normalize(raw []byte, strategies []Strategy) string {
	payload, ok := decode(raw)
	if !ok {
		return strings.TrimSpace(string(raw))
	}
	return normalizePayload(payload, raw, strategies)
}

func normalizePayload(payload any, raw []byte, strategies []Strategy) string {
	for _, strategy := range strategies {
		if text, ok := strategy(payload); ok {
			return text
		}
	}
	return strings.TrimSpace(string(raw))
}

func decode(raw []byte) (any, bool) {
	var payload any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, false
	}
	return payload, true
}
