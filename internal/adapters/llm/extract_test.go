package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPath(t *testing.T) {
	payload, ok := decode([]byte(`{"a":[{"b":"hit"},{"b":""}],"n":3}`))
	assert.True(t, ok)

	text, ok := Path("a", 0, "b")(payload)
	assert.True(t, ok)
	assert.Equal(t, "hit", text)

	text, ok = Path("a", 1, "b")(payload)
	assert.True(t, ok, "an empty string is still a match")
	assert.Empty(t, text)

	_, ok = Path("a", 5, "b")(payload)
	assert.False(t, ok, "index out of range")

	_, ok = Path("n")(payload)
	assert.False(t, ok, "numbers are not text")

	_, ok = Path(0)(payload)
	assert.False(t, ok, "object is not an array")
}

func TestNormalize_GeminiCascade(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"v1beta parts", `{"candidates":[{"content":{"parts":[{"text":"one"}]}}]}`, "one"},
		{"content as array", `{"candidates":[{"content":[{"parts":[{"text":"two"}]}]}]}`, "two"},
		{"output shape", `{"output":[{"content":[{"text":"three"}]}]}`, "three"},
		{"flat candidate", `{"candidates":[{"text":"four"}]}`, "four"},
		{"first match wins", `{"candidates":[{"content":{"parts":[{"text":"first"}]},"text":"second"}]}`, "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize([]byte(tt.raw), geminiStrategies))
		})
	}
}

func TestNormalize_NeverFails(t *testing.T) {
	unknown := `{"unexpected":{"shape":true}}`
	sets := map[string][]Strategy{
		"local":  localStrategies,
		"gemini": geminiStrategies,
		"openai": openAIStrategies,
		"router": routerStrategies,
	}
	for name, strategies := range sets {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, unknown, Normalize([]byte(unknown), strategies))
				assert.Equal(t, "plain text reply", Normalize([]byte("  plain text reply\n"), strategies))
				assert.Equal(t, "[]", Normalize([]byte(`[]`), strategies))
				assert.Equal(t, "", Normalize(nil, strategies))
			})
		})
	}
}

func TestNormalize_Router(t *testing.T) {
	assert.Equal(t, "listed", Normalize([]byte(`[{"generated_text":"listed"}]`), routerStrategies))
	assert.Equal(t, "single", Normalize([]byte(`{"generated_text":"single"}`), routerStrategies))
}

func TestNormalize_EmptyFieldIsNotRawBody(t *testing.T) {
	assert.Equal(t, "", Normalize([]byte(`{"model":"qwen","response":"","done":true}`), localStrategies))
	assert.Equal(t, "", Normalize([]byte(`{"candidates":[{"content":{"parts":[{"text":""}]}}]}`), geminiStrategies))
	assert.Equal(t, "", Normalize([]byte(`{"choices":[{"message":{"role":"assistant","content":""}}]}`), openAIStrategies))
	assert.Equal(t, "", Normalize([]byte(`[{"generated_text":""}]`), routerStrategies))
}
