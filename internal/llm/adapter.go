package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/views"
)

// Adapter formats the extraction prompt and hands it to an Oracle.
type Adapter struct {
	oracle Oracle
	schema views.Schema
	logger *slog.Logger
}

// NewAdapter wires an oracle with the default view schema.
func NewAdapter(oracle Oracle, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{oracle: oracle, schema: views.DefaultSchema, logger: logger}
}

// ExtractViews returns the oracle's raw response for the document text. Only transport
// failures are reported; they carry KindOracleUnavailable.
func (a *Adapter) ExtractViews(ctx context.Context, text string) (string, error) {
	log := common.LoggerFromContext(ctx, a.logger)
	prompt := BuildExtractionPrompt(a.schema, text)
	start := time.Now()

	log.Info("llm.extract.start",
		"oracle", a.oracle.Name(),
		"text_len", len(text),
		"prompt_len", len(prompt),
	)

	raw, err := a.oracle.Complete(ctx, prompt)
	if err != nil {
		log.Error("llm.extract.oracle_error",
			"oracle", a.oracle.Name(),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if common.IsKind(err, common.KindOracleUnavailable) {
			return "", err
		}
		return "", common.NewAppError(common.KindOracleUnavailable, a.oracle.Name()+" completion failed", err)
	}

	log.Info("llm.extract.ok",
		"oracle", a.oracle.Name(),
		"response_len", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, nil
}
