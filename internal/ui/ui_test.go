package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestFormatMetrics(t *testing.T) {
	assert.Equal(t, "-", FormatMetrics(nil))
	assert.Equal(t, "MSE=0.42 R2=0.81", FormatMetrics(map[string]float64{"R2": 0.81, "MSE": 0.42}))
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1024:            "1.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatSize(in))
	}
}

func TestRenderPlainTable(t *testing.T) {
	table := NewTable([]string{"VERSION", "METRICS"})
	table.AddRow("v_1", "R2=0.5")
	table.AddRow("v_20240601_120000_000000000", "-")

	out := RenderPlainTable(table)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "VERSION"))
	assert.Equal(t, strings.Index(lines[0], "METRICS"), strings.Index(lines[1], "R2=0.5"))
	assert.NotContains(t, out, "\x1b[")
}

func TestAddRowPanicsOnWidthMismatch(t *testing.T) {
	table := NewTable([]string{"A", "B"})
	assert.Panics(t, func() { table.AddRow("only one") })
}

func TestWrap(t *testing.T) {
	out := Wrap("retrained on the June snapshot with tuned regularisation", 20, 2)
	for _, line := range strings.Split(out, "\n") {
		assert.True(t, strings.HasPrefix(line, "  "), line)
		assert.LessOrEqual(t, len(line), 20)
	}
}

func TestHighlightJSONKeepsContent(t *testing.T) {
	src := `{"version_id": "v_1"}`
	out := HighlightJSON(src)
	assert.Contains(t, out, "version_id")
	assert.Contains(t, out, "v_1")
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "abc", TruncateWithEllipsis("abc", 5))
	assert.Equal(t, "ab...", TruncateWithEllipsis("abcdefgh", 5))
	assert.Equal(t, "ab", TruncateWithEllipsis("abcdefgh", 2))

	got := TruncateWithEllipsis("modèle entraîné", 6)
	assert.Equal(t, "mod...", got)
	got = TruncateWithEllipsis("réglé à la main", 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ré...", got)

	// Wide characters take two cells each.
	assert.Equal(t, "模型...", TruncateWithEllipsis("模型模型模型", 7))
	assert.Equal(t, "模型模型模型", TruncateWithEllipsis("模型模型模型", 12))
}
