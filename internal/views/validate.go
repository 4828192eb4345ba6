package views

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/entity"
)

// Flagged is a normalized record withheld from persistence.
type Flagged struct {
	View   entity.InvestmentView `json:"view"`
	Reason string                `json:"reason"`
}

// Validate splits records into those safe to persist and those whose sentiment falls
// outside the closed set. Empty sentiment is accepted.
func Validate(records []entity.InvestmentView) ([]entity.InvestmentView, []Flagged) {
	accepted := make([]entity.InvestmentView, 0, len(records))
	var flagged []Flagged

	for _, r := range records {
		if strings.TrimSpace(r.Sentiment) == "" {
			accepted = append(accepted, r)
			continue
		}
		if _, ok := constants.CanonicalizeSentiment(r.Sentiment); !ok {
			flagged = append(flagged, Flagged{
				View: r,
				Reason: fmt.Sprintf("sentiment %q is not one of %s",
					r.Sentiment, strings.Join(constants.AsStringSlice(), ", ")),
			})
			continue
		}
		accepted = append(accepted, r)
	}
	return accepted, flagged
}
