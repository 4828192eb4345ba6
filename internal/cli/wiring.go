package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/extract"
	"github.com/joseph-ayodele/market-views/internal/llm"
	"github.com/joseph-ayodele/market-views/internal/llm/gemini"
	"github.com/joseph-ayodele/market-views/internal/llm/openai"
	"github.com/joseph-ayodele/market-views/internal/pipeline"
	"github.com/joseph-ayodele/market-views/internal/repository"
	"github.com/joseph-ayodele/market-views/internal/store"
)

func (a *app) oracle() (llm.Oracle, error) {
	c := a.cfg.LLM
	switch c.Provider {
	case common.ProviderGemini:
		return gemini.NewClient(gemini.Config{
			APIKey:      c.GeminiAPIKey,
			BaseURL:     c.GeminiBaseURL,
			Model:       c.GeminiModel,
			Temperature: c.Temperature,
			Timeout:     c.Timeout,
		}, a.logger), nil
	case common.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:      c.OpenAIAPIKey,
			BaseURL:     c.OpenAIBaseURL,
			Model:       c.OpenAIModel,
			Temperature: c.Temperature,
			Timeout:     c.Timeout,
		}, a.logger), nil
	default:
		return nil, common.NewAppError(common.KindConfig, fmt.Sprintf("unknown llm_provider %q", c.Provider), common.ErrInvalidInput)
	}
}

func (a *app) blobStore(ctx context.Context) (store.BlobStore, error) {
	c := a.cfg.Store
	switch c.Backend {
	case common.StoreGitHub:
		return store.NewGitHubStore(ctx, store.GitHubConfig{
			Token:   c.GitHubToken,
			Owner:   c.GitHubOwner,
			Repo:    c.GitHubRepo,
			Branch:  c.GitHubBranch,
			Path:    c.GitHubPath,
			BaseURL: c.GitHubBaseURL,
		}, a.logger)
	case common.StoreFile:
		return store.NewFileStore(c.FilePath), nil
	default:
		return nil, common.NewAppError(common.KindConfig, fmt.Sprintf("unknown store_backend %q", c.Backend), common.ErrInvalidInput)
	}
}

func (a *app) appender(ctx context.Context) (*store.Appender, error) {
	bs, err := a.blobStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.NewAppender(bs, store.AppenderOptions{
		MaxAttempts: a.cfg.Store.MaxAttempts,
		Backoff:     a.cfg.Store.Backoff,
	}, a.logger), nil
}

func (a *app) openLedger(ctx context.Context) (*repository.DB, repository.RunRepository, error) {
	d := a.cfg.Database
	db, err := repository.Open(ctx, repository.Config{
		DSN:             d.DSN,
		MaxConns:        d.MaxConns,
		MinConns:        d.MinConns,
		MaxConnLifetime: d.MaxConnLifetime,
		MaxConnIdleTime: d.MaxConnIdleTime,
		DialTimeout:     d.DialTimeout,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return db, repository.NewRunRepository(db, a.logger), nil
}

// processor wires the full pipeline. The returned func closes the run ledger.
func (a *app) processor(ctx context.Context) (*pipeline.Processor, func(), error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	oracle, err := a.oracle()
	if err != nil {
		return nil, nil, err
	}
	appender, err := a.appender(ctx)
	if err != nil {
		return nil, nil, err
	}
	db, runs, err := a.openLedger(ctx)
	if err != nil {
		return nil, nil, err
	}

	extractor := extract.NewCachedExtractor(extract.NewPDFExtractor(a.logger), 30*time.Minute, a.logger)
	p := pipeline.NewProcessor(a.logger, pipeline.Config{
		CommitMessage: a.cfg.Store.CommitMessage,
		Location:      a.cfg.Pipeline.Location(),
		RunTimeout:    a.cfg.Pipeline.RunTimeout,
	}, extractor, llm.NewAdapter(oracle, a.logger), appender, runs)
	return p, db.Close, nil
}
