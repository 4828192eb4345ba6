package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is one uploaded report: its display name and raw bytes.
type Document struct {
	Name string
	Data []byte
}

// ContentHash is the hex sha256 of the document bytes.
func (d Document) ContentHash() string {
	sum := sha256.Sum256(d.Data)
	return hex.EncodeToString(sum[:])
}

// TextExtractor is Stage 1: document -> text.
type TextExtractor interface {
	Extract(ctx context.Context, doc Document) (TextResult, error)
}

type TextResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text"
	Duration time.Duration
	Warnings []string
	Cached   bool
}
