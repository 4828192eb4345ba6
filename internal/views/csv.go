package views

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joseph-ayodele/market-views/internal/entity"
)

// Header is the first line of the persisted catalog.
var Header = strings.Join(entity.Columns, ",")

// EncodeRows renders records as CSV lines without a header. Each line ends in "\n";
// an empty input renders as "".
func EncodeRows(records []entity.InvestmentView) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, r := range records {
		if err := w.Write(r.Row()); err != nil {
			return "", fmt.Errorf("encode row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush rows: %w", err)
	}
	return b.String(), nil
}

// DecodeRows parses header-less CSV lines written by EncodeRows.
func DecodeRows(text string) ([]entity.InvestmentView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = len(entity.Columns)

	var out []entity.InvestmentView
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		values := make(map[string]string, len(rec))
		for i, col := range entity.Columns {
			values[col] = rec[i]
		}
		out = append(out, entity.FromColumns(values))
	}
	return out, nil
}

// DecodeCatalog parses the full catalog. Columns are matched by header name, so
// reordered or extra columns are tolerated; missing columns read as "".
func DecodeCatalog(text string) ([]entity.InvestmentView, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}
	known := 0
	for _, col := range entity.Columns {
		if _, ok := index[col]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("catalog header has none of the expected columns: %q", strings.Join(header, ","))
	}

	var out []entity.InvestmentView
	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}
		values := make(map[string]string, len(entity.Columns))
		for _, col := range entity.Columns {
			if i, ok := index[col]; ok && i < len(rec) {
				values[col] = rec[i]
			}
		}
		out = append(out, entity.FromColumns(values))
	}
	return out, nil
}
