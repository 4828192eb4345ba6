package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/market-views/internal/common"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[{"a":"b"}]`, `[{"a":"b"}]`},
		{"json hint", "```json\n[]\n```", "[]"},
		{"no hint", "```\n[1]\n```", "[1]"},
		{"surrounding whitespace", "  \n```JSON\n [ ] \n```\n\n", "[ ]"},
		{"inline", "```json [] ```", "[]"},
		{"unclosed", "```json\n[]", "[]"},
		{"closing only", "[]\n```", "[]"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestParseResponse_Arrays(t *testing.T) {
	t.Run("fenced empty array", func(t *testing.T) {
		res := ParseResponse("```json\n[]\n```")
		require.True(t, res.OK())
		assert.NotNil(t, res.Elements)
		assert.Empty(t, res.Elements)
		assert.Empty(t, res.Raw)
	})

	t.Run("records", func(t *testing.T) {
		res := ParseResponse(`[{"nome_gestora":"Acme","pais_regiao":"Brazil"},{"nome_gestora":"Beta"}]`)
		require.NoError(t, res.Err)
		require.Len(t, res.Elements, 2)
		first, ok := res.Elements[0].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Acme", first["nome_gestora"])
	})

	t.Run("numbers keep their text", func(t *testing.T) {
		res := ParseResponse(`[{"data_referencia": 2024}]`)
		require.NoError(t, res.Err)
		el := res.Elements[0].(map[string]any)
		assert.Equal(t, json.Number("2024"), el["data_referencia"])
	})

	t.Run("array elements are not deep-checked", func(t *testing.T) {
		res := ParseResponse(`[1, "x", null]`)
		require.NoError(t, res.Err)
		assert.Len(t, res.Elements, 3)
	})
}

func TestParseResponse_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind common.ErrorKind
	}{
		{"prose", "Sorry, I cannot process this.", common.KindInvalidPayload},
		{"empty", "", common.KindInvalidPayload},
		{"whitespace", "  \n\t", common.KindInvalidPayload},
		{"empty fence", "```json\n```", common.KindInvalidPayload},
		{"truncated", `[{"nome_gestora":"Acme"`, common.KindInvalidPayload},
		{"trailing prose", `[] and that's all`, common.KindInvalidPayload},
		{"two values", `[] []`, common.KindInvalidPayload},
		{"object", `{"nome_gestora":"Acme"}`, common.KindUnexpectedShape},
		{"string", `"[]"`, common.KindUnexpectedShape},
		{"number", `42`, common.KindUnexpectedShape},
		{"null", `null`, common.KindUnexpectedShape},
		{"fenced object", "```json\n{\"views\": []}\n```", common.KindUnexpectedShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res ParseResult
			require.NotPanics(t, func() { res = ParseResponse(tt.raw) })
			require.Error(t, res.Err)
			assert.Equal(t, tt.kind, common.KindOf(res.Err))
			assert.Nil(t, res.Elements)
			assert.Equal(t, tt.raw, res.Raw)
			assert.False(t, res.OK())
		})
	}
}
