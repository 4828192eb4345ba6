package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/entity"
	"github.com/joseph-ayodele/market-views/internal/llm"
	"github.com/joseph-ayodele/market-views/internal/views"
)

// Stage names the step a run stopped at.
type Stage string

const (
	StageExtract Stage = "extract"
	StageOracle  Stage = "oracle"
	StageParse   Stage = "parse"
	StagePersist Stage = "persist"
	StageDone    Stage = "done"
)

// Options tune a single run.
type Options struct {
	// DryRun stops before the store is touched.
	DryRun bool
}

// Result is everything an operator needs to see about one document.
type Result struct {
	RunID    uuid.UUID
	Document string
	Status   constants.RunStatus
	Stage    Stage
	Err      error

	// Raw is the oracle response, kept for diagnostics whenever one was received.
	Raw      string
	Views    []entity.InvestmentView
	Flagged  []views.Flagged
	Rejected []llm.Rejection
	Warnings []string

	Appended int
	Pending  string
}

// Kind is the error kind of a failed run, or "".
func (r Result) Kind() common.ErrorKind { return common.KindOf(r.Err) }

// Summary is a one-line operator message.
func (r Result) Summary() string {
	switch r.Status {
	case constants.RunStatusOK:
		if r.Appended == 0 {
			return fmt.Sprintf("%s: %d view(s) extracted (dry run, nothing appended)", r.Document, len(r.Views))
		}
		msg := fmt.Sprintf("%s: appended %d view(s)", r.Document, r.Appended)
		if len(r.Flagged) > 0 {
			msg += fmt.Sprintf(", %d withheld (sentiment)", len(r.Flagged))
		}
		return msg
	case constants.RunStatusNoViews:
		if len(r.Flagged) > 0 {
			return fmt.Sprintf("%s: %d view(s) withheld (sentiment)", r.Document, len(r.Flagged))
		}
		return fmt.Sprintf("%s: no views found", r.Document)
	case constants.RunStatusPending:
		return fmt.Sprintf("%s: %s; %d view(s) kept for resubmission (run %s)",
			r.Document, r.Kind().Describe(), len(r.Views), r.RunID)
	default:
		return fmt.Sprintf("%s: failed at %s: %s", r.Document, r.Stage, r.Kind().Describe())
	}
}
