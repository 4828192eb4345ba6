package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/market-views/internal/common"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 750 * time.Millisecond
)

// AppenderOptions bounds the refetch-and-retry loop on version conflicts.
type AppenderOptions struct {
	MaxAttempts int
	Backoff     time.Duration
}

// AppendResult describes one append.
type AppendResult struct {
	NoOp     bool   // rows were empty; the store was not touched
	Attempts int    // read-modify-write cycles performed
	Version  string // version after the successful write
}

// Appender adds rows to the end of a BlobStore with optimistic concurrency.
type Appender struct {
	store       BlobStore
	maxAttempts int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

func NewAppender(store BlobStore, opts AppenderOptions, logger *slog.Logger) *Appender {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	return &Appender{
		store:       store,
		maxAttempts: opts.MaxAttempts,
		limiter:     rate.NewLimiter(rate.Every(opts.Backoff), 1),
		logger:      logger,
	}
}

// Store returns the underlying blob store.
func (a *Appender) Store() BlobStore { return a.store }

// Append reads the blob, adds rows after exactly one newline and writes it back with the
// version it read. On a stale version it refetches and tries again, up to MaxAttempts
// cycles, then fails with KindConcurrentModification. Empty rows never touch the store.
// Appending is not idempotent.
func (a *Appender) Append(ctx context.Context, rows, message string) (AppendResult, error) {
	log := common.LoggerFromContext(ctx, a.logger)
	if rows == "" {
		log.Info("store.append.noop", "store", a.store.Describe())
		return AppendResult{NoOp: true}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		// the first token is free; later ones pace the retries
		if err := a.limiter.Wait(ctx); err != nil {
			return AppendResult{Attempts: attempt - 1}, common.NewAppError(common.KindRemoteWriteError, "append cancelled", err)
		}

		blob, err := a.store.Get(ctx)
		if err != nil {
			return AppendResult{Attempts: attempt}, err
		}

		version, err := a.store.Put(ctx, joinRows(blob.Content, rows), blob.Version, message)
		if err == nil {
			log.Info("store.append.ok",
				"store", a.store.Describe(),
				"attempt", attempt,
				"bytes", len(rows),
				"version", version,
			)
			return AppendResult{Attempts: attempt, Version: version}, nil
		}
		if !IsConflict(err) {
			return AppendResult{Attempts: attempt}, err
		}

		lastErr = err
		log.Warn("store.append.conflict",
			"store", a.store.Describe(),
			"attempt", attempt,
			"max_attempts", a.maxAttempts,
			"stale_version", blob.Version,
		)
	}

	return AppendResult{Attempts: a.maxAttempts}, common.NewAppError(common.KindConcurrentModification,
		"gave up after repeated version conflicts on "+a.store.Describe(), lastErr)
}

// Init creates the blob with the header line when it does not exist yet.
// It reports whether the blob was created.
func (a *Appender) Init(ctx context.Context, header string) (bool, error) {
	log := common.LoggerFromContext(ctx, a.logger)

	_, err := a.store.Get(ctx)
	if err == nil {
		log.Info("store.init.exists", "store", a.store.Describe())
		return false, nil
	}
	if !IsNotFound(err) {
		return false, err
	}

	version, err := a.store.Put(ctx, strings.TrimRight(header, "\n")+"\n", "", "Initialize investment views catalog")
	if err != nil {
		return false, err
	}
	log.Info("store.init.created", "store", a.store.Describe(), "version", version)
	return true, nil
}

// joinRows appends rows to existing content with exactly one newline between them.
func joinRows(existing, rows string) string {
	if existing == "" {
		return rows
	}
	if !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	return existing + rows
}
