package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joseph-ayodele/market-views/internal/entity"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#45475A"))
)

// tableColumns are the columns shown in the terminal; provenance stays in JSON/XLSX.
var tableColumns = []string{
	entity.ColReportDate,
	entity.ColManagerName,
	entity.ColRegion,
	entity.ColAssetClass,
	entity.ColAssetSubclass,
	entity.ColSentiment,
	entity.ColThesis,
}

// maxThesis caps the thesis column in the terminal table.
const maxThesis = 60

// RenderTable writes records as a bordered terminal table.
func RenderTable(w io.Writer, records []entity.InvestmentView) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(tableColumns))
		for i, col := range tableColumns {
			v := r.Get(col)
			if col == entity.ColThesis {
				v = truncate(v, maxThesis)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(tableColumns...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d view(s)\n", len(records))
	return err
}

// RenderJSON writes records as an indented JSON array.
func RenderJSON(w io.Writer, records []entity.InvestmentView) error {
	if records == nil {
		records = []entity.InvestmentView{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// RenderList writes one value per line.
func RenderList(w io.Writer, values []string) error {
	for _, v := range values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
