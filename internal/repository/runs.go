package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/common"
)

const runsTable = "extraction_runs"

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

var runColumns = []string{
	"id", "source_document", "content_hash", "status", "error_kind", "error_message",
	"raw_response", "view_count", "flagged_count", "appended_count", "pending_rows",
	"dry_run", "started_at", "finished_at",
}

// Run is one pipeline invocation for one document.
type Run struct {
	ID             uuid.UUID
	SourceDocument string
	ContentHash    string
	Status         constants.RunStatus
	ErrorKind      string
	ErrorMessage   string
	RawResponse    string
	ViewCount      int
	FlaggedCount   int
	AppendedCount  int
	PendingRows    string
	DryRun         bool
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// RunOutcome is what a finished run records.
type RunOutcome struct {
	Status        constants.RunStatus
	ErrorKind     string
	ErrorMessage  string
	RawResponse   string
	ViewCount     int
	FlaggedCount  int
	AppendedCount int
	PendingRows   string
}

// RunFilter narrows List. Zero values mean no constraint; Limit defaults to 50.
type RunFilter struct {
	Status constants.RunStatus
	Limit  int
}

type RunRepository interface {
	Start(ctx context.Context, sourceDocument, contentHash string, dryRun bool) (*Run, error)
	Finish(ctx context.Context, id uuid.UUID, out RunOutcome) error
	Get(ctx context.Context, id uuid.UUID) (*Run, error)
	List(ctx context.Context, filter RunFilter) ([]*Run, error)
	MarkResubmitted(ctx context.Context, id uuid.UUID, appended int) error
}

type runRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewRunRepository(db *DB, logger *slog.Logger) RunRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &runRepository{db: db, logger: logger, now: time.Now}
}

func (r *runRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

func (r *runRepository) Start(ctx context.Context, sourceDocument, contentHash string, dryRun bool) (*Run, error) {
	run := &Run{
		ID:             uuid.New(),
		SourceDocument: sourceDocument,
		ContentHash:    contentHash,
		Status:         constants.RunStatusRunning,
		DryRun:         dryRun,
		StartedAt:      r.now().UTC(),
	}

	query, args := r.builder().Insert(runsTable).
		Columns("id", "source_document", "content_hash", "status", "dry_run", "started_at").
		Values(run.ID.String(), sourceDocument, contentHash, string(run.Status), boolToInt(dryRun), formatTime(run.StartedAt)).
		Query()
	if err := r.db.Driver.Exec(ctx, query, args, nil); err != nil {
		r.logger.Error("extraction_run start failed", "file", sourceDocument, "error", err)
		return nil, fmt.Errorf("%w: insert run: %w", common.ErrDatabase, err)
	}
	r.logger.Info("extraction_run started", "run_id", run.ID, "file", sourceDocument, "dry_run", dryRun)
	return run, nil
}

func (r *runRepository) Finish(ctx context.Context, id uuid.UUID, out RunOutcome) error {
	query, args := r.builder().Update(runsTable).
		Set("status", string(out.Status)).
		Set("error_kind", out.ErrorKind).
		Set("error_message", out.ErrorMessage).
		Set("raw_response", out.RawResponse).
		Set("view_count", out.ViewCount).
		Set("flagged_count", out.FlaggedCount).
		Set("appended_count", out.AppendedCount).
		Set("pending_rows", out.PendingRows).
		Set("finished_at", formatTime(r.now().UTC())).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.exec1(ctx, query, args, id); err != nil {
		r.logger.Error("extraction_run finish failed", "run_id", id, "status", out.Status, "error", err)
		return err
	}

	attrs := []any{"run_id", id, "status", out.Status, "appended", out.AppendedCount}
	if out.ErrorKind != "" {
		r.logger.Warn("extraction_run finished", append(attrs, "error_kind", out.ErrorKind, "error", out.ErrorMessage)...)
	} else {
		r.logger.Info("extraction_run finished", attrs...)
	}
	return nil
}

func (r *runRepository) MarkResubmitted(ctx context.Context, id uuid.UUID, appended int) error {
	query, args := r.builder().Update(runsTable).
		Set("status", string(constants.RunStatusResubmitted)).
		Set("appended_count", appended).
		Set("pending_rows", "").
		Set("error_kind", "").
		Set("error_message", "").
		Set("finished_at", formatTime(r.now().UTC())).
		Where(entsql.And(
			entsql.EQ("id", id.String()),
			entsql.EQ("status", string(constants.RunStatusPending)),
		)).
		Query()
	if err := r.exec1(ctx, query, args, id); err != nil {
		r.logger.Error("extraction_run resubmit mark failed", "run_id", id, "error", err)
		return err
	}
	r.logger.Info("extraction_run resubmitted", "run_id", id, "appended", appended)
	return nil
}

func (r *runRepository) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	query, args := r.builder().Select(runColumns...).
		From(entsql.Table(runsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	runs, err := r.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return runs[0], nil
}

func (r *runRepository) List(ctx context.Context, filter RunFilter) ([]*Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	sel := r.builder().Select(runColumns...).From(entsql.Table(runsTable))
	if filter.Status != "" {
		sel = sel.Where(entsql.EQ("status", string(filter.Status)))
	}
	query, args := sel.OrderBy(entsql.Desc("started_at")).Limit(limit).Query()
	return r.query(ctx, query, args)
}

// exec1 runs an update that must touch exactly one row.
func (r *runRepository) exec1(ctx context.Context, query string, args []any, id uuid.UUID) error {
	var res stdsql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("%w: update run %s: %w", common.ErrDatabase, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *runRepository) query(ctx context.Context, query string, args []any) ([]*Run, error) {
	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("%w: query runs: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var (
			run                 Run
			id, status          string
			dryRun              int
			startedAt, finished string
		)
		if err := rows.Scan(
			&id, &run.SourceDocument, &run.ContentHash, &status, &run.ErrorKind, &run.ErrorMessage,
			&run.RawResponse, &run.ViewCount, &run.FlaggedCount, &run.AppendedCount, &run.PendingRows,
			&dryRun, &startedAt, &finished,
		); err != nil {
			return nil, fmt.Errorf("%w: scan run: %w", common.ErrDatabase, err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: run id %q: %w", common.ErrDatabase, id, err)
		}
		run.ID = parsed
		run.Status = constants.RunStatus(status)
		run.DryRun = dryRun != 0
		run.StartedAt = parseTime(startedAt)
		if finished != "" {
			t := parseTime(finished)
			run.FinishedAt = &t
		}
		out = append(out, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate runs: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
