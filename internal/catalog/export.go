package catalog

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/market-views/internal/entity"
)

const sheetName = "Investment Views"

var xlsxHeaders = []string{
	"Extraction Date",
	"Report Date",
	"Manager",
	"Source Document",
	"Region",
	"Asset Class",
	"Asset Subclass",
	"Sentiment",
	"Thesis",
}

// ExportXLSX returns an XLSX workbook (as bytes) with one row per record.
func ExportXLSX(records []entity.InvestmentView, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// replace the default sheet so the workbook has exactly one
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx style: %w", err)
	}
	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	_ = f.SetRowStyle(sheetName, 1, 1, bold)

	for i, r := range records {
		row := i + 2
		for col, v := range r.Row() {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellStr(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("xlsx cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 14) // dates
	_ = f.SetColWidth(sheetName, "C", "D", 28) // manager, document
	_ = f.SetColWidth(sheetName, "E", "G", 18) // region, classes
	_ = f.SetColWidth(sheetName, "H", "H", 12) // sentiment
	_ = f.SetColWidth(sheetName, "I", "I", 80) // thesis
	_ = f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
