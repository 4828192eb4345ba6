package views

import (
	"time"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/entity"
)

// Normalize projects coerced model elements onto the canonical record using DefaultSchema.
func Normalize(elements []map[string]string, sourceDocument string, day time.Time) []entity.InvestmentView {
	return DefaultSchema.Normalize(elements, sourceDocument, day)
}

// Normalize stamps provenance on every element and fills each content field from the
// element or its default. Provenance keys supplied by the model are ignored.
// It never fails; an empty input yields an empty, non-nil slice.
func (s Schema) Normalize(elements []map[string]string, sourceDocument string, day time.Time) []entity.InvestmentView {
	out := make([]entity.InvestmentView, 0, len(elements))
	extractionDate := day.Format(constants.DateLayout)

	for _, el := range elements {
		values := make(map[string]string, len(entity.Columns))
		for _, f := range s.Fields {
			v, ok := f.lookup(el)
			if !ok {
				v = f.Default
			}
			values[f.Column] = v
		}
		values[entity.ColExtractionDate] = extractionDate
		values[entity.ColSourceDocument] = sourceDocument

		out = append(out, entity.FromColumns(values))
	}
	return out
}
