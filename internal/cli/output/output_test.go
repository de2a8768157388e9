package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode OutputMode, tty bool) (*Renderer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewRendererWithTTY(out, &bytes.Buffer{}, tty, mode), out
}

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"text", ModeText},
		{"Markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{"json", ModeJSON},
		{"yaml", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name string
		mode OutputMode
		tty  bool
		want OutputMode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit json on terminal", ModeJSON, true, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRenderer(tt.mode, tt.tty)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestTable_Markdown(t *testing.T) {
	r, out := newTestRenderer(ModeAuto, false)
	r.Table([]string{"Table", "Rows"}, [][]any{{"Owner", 2}, {"Item", 3}})

	got := out.String()
	assert.Contains(t, got, "| Table | Rows |")
	assert.Contains(t, got, "| Owner | 2 |")
	assert.NotContains(t, got, "\x1b[")
}

func TestTable_Text(t *testing.T) {
	r, out := newTestRenderer(ModeText, false)
	r.Table([]string{"Table", "Rows"}, [][]any{{"Owner", 2}})

	got := out.String()
	assert.Contains(t, got, "┌")
	assert.Contains(t, got, "Owner")
	assert.NotContains(t, got, "\x1b[")
}

func TestTable_Empty(t *testing.T) {
	r, out := newTestRenderer(ModeMarkdown, false)
	r.Table([]string{"A"}, nil)
	assert.Equal(t, "(0 rows)\n", out.String())
}

func TestHeaderAndKeyValue(t *testing.T) {
	r, out := newTestRenderer(ModeMarkdown, false)
	r.Header(2, "Load")
	r.KeyValue("Run", "abc")
	assert.Equal(t, "## Load\n\n- **Run:** abc\n", out.String())

	r, out = newTestRenderer(ModeText, false)
	r.Header(2, "Load")
	r.KeyValue("Run", "abc")
	assert.Equal(t, "Load\nRun: abc\n", out.String())
}

func TestCode(t *testing.T) {
	r, out := newTestRenderer(ModeMarkdown, false)
	r.Code("sql", "SELECT 1;\n")
	assert.Equal(t, "```sql\nSELECT 1;\n```\n", out.String())

	r, out = newTestRenderer(ModeText, true)
	r.Code("sql", "SELECT 1;\n\n")
	assert.Equal(t, "SELECT 1;\n", out.String())
}

func TestJSON(t *testing.T) {
	r, out := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.JSON(map[string]int{"rows": 3}))

	var got map[string]int
	require.NoError(t, json.NewDecoder(strings.NewReader(out.String())).Decode(&got))
	assert.Equal(t, 3, got["rows"])
}
