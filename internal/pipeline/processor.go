package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/extract"
	"github.com/joseph-ayodele/market-views/internal/llm"
	"github.com/joseph-ayodele/market-views/internal/repository"
	"github.com/joseph-ayodele/market-views/internal/store"
	"github.com/joseph-ayodele/market-views/internal/views"
)

// RowAppender persists encoded CSV rows.
type RowAppender interface {
	Append(ctx context.Context, rows, message string) (store.AppendResult, error)
}

// Config holds per-run behavior.
type Config struct {
	// CommitMessage is the store write message; "{source}" becomes the document name.
	CommitMessage string
	Location      *time.Location
	RunTimeout    time.Duration
}

// Processor runs one document at a time through extract, oracle, parse, normalize,
// validate and append.
type Processor struct {
	logger    *slog.Logger
	cfg       Config
	extractor extract.TextExtractor
	oracle    llm.ViewExtractor
	appender  RowAppender
	runs      repository.RunRepository
	now       func() time.Time
}

// NewProcessor wires the stages. runs may be nil, in which case nothing is recorded
// and Resubmit is unavailable.
func NewProcessor(
	logger *slog.Logger,
	cfg Config,
	extractor extract.TextExtractor,
	oracle llm.ViewExtractor,
	appender RowAppender,
	runs repository.RunRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CommitMessage == "" {
		cfg.CommitMessage = "Add investment views from {source}"
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Processor{
		logger:    logger,
		cfg:       cfg,
		extractor: extractor,
		oracle:    oracle,
		appender:  appender,
		runs:      runs,
		now:       time.Now,
	}
}

// Process runs the whole pipeline for doc. The returned error is Result.Err; the Result
// is always populated so the caller can show the failing stage and the raw oracle text.
func (p *Processor) Process(ctx context.Context, doc extract.Document, opts Options) (Result, error) {
	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}

	res := Result{Document: doc.Name, Status: constants.RunStatusRunning}
	res.RunID = p.startRun(ctx, doc, opts)
	ctx = common.WithRunID(ctx, res.RunID.String())
	log := p.logger.With("run_id", res.RunID.String(), "file", doc.Name)
	ctx = common.WithLogger(ctx, log)
	start := time.Now()

	log.Info("pipeline.run.start", "bytes", len(doc.Data), "dry_run", opts.DryRun)
	p.run(ctx, doc, opts, &res)
	p.finishRun(ctx, res)

	attrs := []any{
		"status", res.Status,
		"stage", res.Stage,
		"views", len(res.Views),
		"flagged", len(res.Flagged),
		"rejected", len(res.Rejected),
		"appended", res.Appended,
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if res.Err != nil {
		log.Error("pipeline.run.failed", append(attrs, "error_kind", res.Kind(), "error", res.Err)...)
	} else {
		log.Info("pipeline.run.ok", attrs...)
	}
	return res, res.Err
}

func (p *Processor) run(ctx context.Context, doc extract.Document, opts Options, res *Result) {
	log := common.LoggerFromContext(ctx, p.logger)

	// 1) text
	res.Stage = StageExtract
	text, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		p.fail(res, err, constants.RunStatusFailed)
		return
	}
	res.Warnings = append(res.Warnings, text.Warnings...)
	if strings.TrimSpace(text.Text) == "" {
		res.Warnings = append(res.Warnings, "no extractable text; the document may be scanned images")
		res.Stage, res.Status = StageDone, constants.RunStatusNoViews
		return
	}

	// 2) oracle
	res.Stage = StageOracle
	raw, err := p.oracle.ExtractViews(ctx, text.Text)
	if err != nil {
		p.fail(res, err, constants.RunStatusFailed)
		return
	}
	res.Raw = raw

	// 3) parse
	res.Stage = StageParse
	parsed := llm.ParseResponse(raw)
	if !parsed.OK() {
		p.fail(res, parsed.Err, constants.RunStatusFailed)
		return
	}
	elements, rejected := llm.CoerceElements(parsed.Elements)
	res.Rejected = rejected
	for _, r := range rejected {
		log.Warn("pipeline.parse.element_rejected", "index", r.Index, "reason", r.Reason)
	}

	// 4) normalize + validate
	records := views.Normalize(elements, doc.Name, p.now().In(p.cfg.Location))
	accepted, flagged := views.Validate(records)
	res.Views, res.Flagged = accepted, flagged
	for _, f := range flagged {
		log.Warn("pipeline.validate.flagged", "manager", f.View.ManagerName, "reason", f.Reason)
	}
	if len(accepted) == 0 {
		res.Stage, res.Status = StageDone, constants.RunStatusNoViews
		return
	}

	// 5) persist
	res.Stage = StagePersist
	rows, err := views.EncodeRows(accepted)
	if err != nil {
		p.fail(res, common.NewAppError(common.KindRemoteWriteError, "encode rows", err), constants.RunStatusFailed)
		return
	}
	if opts.DryRun {
		res.Stage, res.Status = StageDone, constants.RunStatusOK
		return
	}

	if _, err := p.appender.Append(ctx, rows, p.commitMessage(doc.Name)); err != nil {
		// the rows survive in the ledger for a later resubmit
		res.Pending = rows
		p.fail(res, err, constants.RunStatusPending)
		return
	}
	res.Appended = len(accepted)
	res.Stage, res.Status = StageDone, constants.RunStatusOK
}

func (p *Processor) fail(res *Result, err error, status constants.RunStatus) {
	// a timeout is not a bad document or a dead oracle, whatever the stage wrapped it as
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if !common.IsKind(err, common.KindCancelled) {
			err = common.NewAppError(common.KindCancelled, string(res.Stage)+" interrupted", err)
		}
	} else if common.KindOf(err) == "" {
		err = common.NewAppError(kindForStage(res.Stage), string(res.Stage)+" failed", err)
	}
	res.Err = err
	res.Status = status
}

func kindForStage(s Stage) common.ErrorKind {
	switch s {
	case StageExtract:
		return common.KindUnreadableDocument
	case StageOracle:
		return common.KindOracleUnavailable
	case StageParse:
		return common.KindInvalidPayload
	default:
		return common.KindRemoteWriteError
	}
}

func (p *Processor) commitMessage(source string) string {
	return strings.ReplaceAll(p.cfg.CommitMessage, "{source}", source)
}

// Resubmit appends the rows a PENDING run could not persist.
func (p *Processor) Resubmit(ctx context.Context, runID uuid.UUID) (Result, error) {
	if p.runs == nil {
		return Result{RunID: runID}, errors.New("resubmit needs a run ledger")
	}
	ctx = common.WithRunID(ctx, runID.String())
	log := p.logger.With("run_id", runID.String())

	run, err := p.runs.Get(ctx, runID)
	if err != nil {
		return Result{RunID: runID}, err
	}
	res := Result{RunID: runID, Document: run.SourceDocument, Status: run.Status, Stage: StagePersist, Pending: run.PendingRows}
	if run.Status != constants.RunStatusPending {
		res.Err = fmt.Errorf("run %s is %s, only %s runs can be resubmitted: %w",
			runID, run.Status, constants.RunStatusPending, common.ErrInvalidInput)
		return res, res.Err
	}

	records, err := views.DecodeRows(run.PendingRows)
	if err != nil {
		res.Err = common.WrapError(err, "decode pending rows")
		return res, res.Err
	}
	res.Views = records

	log.Info("pipeline.resubmit.start", "file", run.SourceDocument, "rows", len(records))
	if _, err := p.appender.Append(ctx, run.PendingRows, p.commitMessage(run.SourceDocument)); err != nil {
		res.Err = err
		log.Error("pipeline.resubmit.failed", "error_kind", common.KindOf(err), "error", err)
		return res, err
	}

	res.Appended = len(records)
	res.Pending = ""
	res.Status, res.Stage = constants.RunStatusResubmitted, StageDone
	if err := p.runs.MarkResubmitted(ctx, runID, res.Appended); err != nil {
		// the catalog already has the rows; a second resubmit would duplicate them
		log.Error("pipeline.resubmit.mark_failed", "error", err)
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%d view(s) were appended but run %s is still marked %s; do not resubmit it again",
			res.Appended, runID, constants.RunStatusPending))
		res.Err = common.WrapError(err, "mark run resubmitted")
		return res, res.Err
	}
	log.Info("pipeline.resubmit.ok", "appended", res.Appended)
	return res, nil
}

func (p *Processor) startRun(ctx context.Context, doc extract.Document, opts Options) uuid.UUID {
	if p.runs == nil {
		return uuid.New()
	}
	run, err := p.runs.Start(ctx, doc.Name, doc.ContentHash(), opts.DryRun)
	if err != nil {
		p.logger.Warn("pipeline.ledger.start_failed", "file", doc.Name, "error", err)
		return uuid.New()
	}
	return run.ID
}

func (p *Processor) finishRun(ctx context.Context, res Result) {
	if p.runs == nil {
		return
	}
	out := repository.RunOutcome{
		Status:        res.Status,
		RawResponse:   res.Raw,
		ViewCount:     len(res.Views),
		FlaggedCount:  len(res.Flagged),
		AppendedCount: res.Appended,
		PendingRows:   res.Pending,
	}
	if res.Err != nil {
		out.ErrorKind = string(res.Kind())
		out.ErrorMessage = res.Err.Error()
	}
	// the run context may already be past its deadline
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.runs.Finish(ctx, res.RunID, out); err != nil {
		common.LoggerFromContext(ctx, p.logger).Warn("pipeline.ledger.finish_failed", "error", err)
	}
}
