package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	SuccessSymbol = "✓"
	ErrorSymbol   = "✗"
	InfoSymbol    = "ℹ"
	WarningSymbol = "⚠"
	LatestSymbol  = "●"
)

// PrintSuccess prints a success message.
func PrintSuccess(message string) {
	fmt.Println(lipgloss.NewStyle().
		Foreground(lipgloss.Color(SuccessColor)).
		Bold(true).
		Render(SuccessSymbol + " " + message))
}

// PrintError prints an error message in a bordered box.
func PrintError(message string) {
	errorBox := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ErrorColor)).
		Padding(0, 1).
		Render(ErrorStyle.Bold(true).Render(ErrorSymbol + " Error: " + message))

	fmt.Println(errorBox)
}

func PrintWarning(message string) {
	fmt.Println(WarningStyle.Bold(true).Render(WarningSymbol + " " + message))
}

// PrintInfo prints a label and value on one line.
func PrintInfo(label, value string) {
	labelStyle := DimStyle.Bold(true)
	fmt.Printf("%s %s\n",
		labelStyle.Render(label+":"),
		InfoStyle.Render(value))
}

// PrintMetadata prints metadata with styled label and value.
func PrintMetadata(label, value string) {
	if value == "" {
		fmt.Printf("%s %s\n",
			InfoStyle.Render(InfoSymbol),
			DimStyle.Bold(true).Render(label))
		return
	}
	fmt.Printf("%s %s %s\n",
		InfoStyle.Render(InfoSymbol),
		DimStyle.Bold(true).Render(label),
		InfoStyle.Render(value))
}

// PrintEmptyState shows a message when no data is available.
func PrintEmptyState(message string) {
	fmt.Println(DimStyle.Render(message))
}

// FormatMetrics renders metrics as NAME=VALUE pairs in name order.
func FormatMetrics(metrics map[string]float64) string {
	if len(metrics) == 0 {
		return "-"
	}
	names := make([]string, 0, len(metrics))
	for k := range metrics {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strconv.FormatFloat(metrics[name], 'g', 6, 64)
	}
	return strings.Join(parts, " ")
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Table represents a formatted table with headers and rows.
type Table struct {
	Headers     []string
	Rows        [][]string
	ColumnWidth []int
}

// NewTable creates a new table with the given headers.
func NewTable(headers []string) *Table {
	columnWidth := make([]int, len(headers))
	for i, h := range headers {
		columnWidth[i] = len(h) + 4
	}
	return &Table{
		Headers:     headers,
		Rows:        [][]string{},
		ColumnWidth: columnWidth,
	}
}

// AddRow adds a new row to the table.
func (t *Table) AddRow(values ...string) {
	if len(values) != len(t.Headers) {
		panic(fmt.Sprintf("Row has %d values, expected %d", len(values), len(t.Headers)))
	}

	for i, v := range values {
		if lipgloss.Width(v)+4 > t.ColumnWidth[i] {
			t.ColumnWidth[i] = lipgloss.Width(v) + 4
		}
	}

	t.Rows = append(t.Rows, values)
}

// RenderTable renders the table with a header separator and alternating rows.
func RenderTable(table *Table) string {
	return renderTable(table, true)
}

// RenderPlainTable renders the table without colors, for pipes and scripts.
func RenderPlainTable(table *Table) string {
	return renderTable(table, false)
}

func renderTable(table *Table, styled bool) string {
	widths := append([]int(nil), table.ColumnWidth...)

	formatRow := func(values []string) string {
		cells := make([]string, len(values))
		for i, v := range values {
			pad := widths[i] - lipgloss.Width(v)
			if i == len(values)-1 || pad < 0 {
				pad = 0
			}
			cells[i] = v + strings.Repeat(" ", pad)
		}
		return strings.TrimRight(strings.Join(cells, " "), " ")
	}

	header := formatRow(table.Headers)
	if !styled {
		rows := []string{header}
		for _, row := range table.Rows {
			rows = append(rows, formatRow(row))
		}
		return strings.Join(rows, "\n") + "\n"
	}

	tableRows := []string{
		TableHeaderStyle.Render(header),
		DimStyle.Render(strings.Repeat("─", lipgloss.Width(header))),
	}
	for i, row := range table.Rows {
		style := TableRowStyle
		if i%2 == 1 {
			style = style.Background(lipgloss.Color(AlternatingRowDark))
		}
		tableRows = append(tableRows, style.Render(formatRow(row)))
	}

	return fmt.Sprintf("\n%s\n", lipgloss.JoinVertical(lipgloss.Left, tableRows...))
}
