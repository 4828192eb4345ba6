package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/market-views/internal/common"
)

var _ TextExtractor = (*PDFExtractor)(nil)

// PDFExtractor pulls the visible text out of every page of a PDF.
type PDFExtractor struct {
	logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{logger: logger}
}

// Extract returns the page texts joined by "\n" in document order. Pages without
// extractable text contribute "" and a warning. Decoder failures, including panics
// inside the PDF library, are reported as KindUnreadableDocument.
func (e *PDFExtractor) Extract(ctx context.Context, doc Document) (res TextResult, err error) {
	log := common.LoggerFromContext(ctx, e.logger)
	start := time.Now()

	if len(doc.Data) == 0 {
		return TextResult{}, common.NewAppError(common.KindUnreadableDocument, doc.Name+": empty document", nil)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("extract.pdf.panic", "file", doc.Name, "panic", fmt.Sprint(r))
			res = TextResult{}
			err = common.NewAppError(common.KindUnreadableDocument, doc.Name,
				fmt.Errorf("pdf decoder panic: %v", r))
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		log.Warn("extract.pdf.open_error", "file", doc.Name, "error", err)
		return TextResult{}, common.NewAppError(common.KindUnreadableDocument, doc.Name, err)
	}

	n := r.NumPage()
	pages := make([]string, 0, n)
	var warnings []string
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return TextResult{}, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			warnings = append(warnings, fmt.Sprintf("page %d: missing page object", i))
			pages = append(pages, "")
			continue
		}
		text, pErr := pageText(page)
		if pErr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, pErr))
			pages = append(pages, "")
			continue
		}
		if strings.TrimSpace(text) == "" {
			warnings = append(warnings, fmt.Sprintf("page %d: no extractable text", i))
		}
		pages = append(pages, text)
	}

	res = TextResult{
		Text:     Normalize(strings.Join(pages, "\n")),
		Pages:    n,
		Method:   "pdf-text",
		Duration: time.Since(start),
		Warnings: warnings,
	}
	log.Info("extract.pdf.ok",
		"file", doc.Name,
		"pages", n,
		"text_len", len(res.Text),
		"warnings", len(warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// pageText isolates one page so a decoder panic only blanks that page.
func pageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", errors.New(fmt.Sprint(r))
		}
	}()
	return page.GetPlainText(nil)
}
