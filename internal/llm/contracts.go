package llm

import "context"

// Oracle is a hosted text-completion service: one prompt in, one free-form text out.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

// ViewExtractor is the interface our pipeline depends on. It returns the oracle's raw
// response; malformed output is not an error at this stage.
type ViewExtractor interface {
	ExtractViews(ctx context.Context, text string) (string, error)
}
