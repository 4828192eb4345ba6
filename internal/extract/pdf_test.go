package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/market-views/internal/common"
)

// buildPDF assembles a minimal uncompressed PDF with one Helvetica text line per page.
// An empty string produces a page with no text operators.
func buildPDF(pages ...string) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		stream := "q Q"
		if text != "" {
			stream = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		}
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestPDFExtractor_Extract(t *testing.T) {
	e := NewPDFExtractor(nil)

	res, err := e.Extract(context.Background(), Document{
		Name: "report.pdf",
		Data: buildPDF("Acme Asset Management", "", "Brazil equities outlook"),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Contains(t, res.Text, "Acme Asset Management")
	assert.Contains(t, res.Text, "Brazil equities outlook")
	assert.Less(t, strings.Index(res.Text, "Acme"), strings.Index(res.Text, "Brazil"), "pages keep document order")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 2")
	assert.False(t, res.Cached)
}

func TestPDFExtractor_Unreadable(t *testing.T) {
	valid := buildPDF("hello")
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not a pdf", []byte("this is plainly not a PDF document")},
		{"truncated", valid[:len(valid)/2]},
		{"header only", []byte("%PDF-1.4\n")},
	}
	e := NewPDFExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = e.Extract(context.Background(), Document{Name: "bad.pdf", Data: tt.data})
			})
			require.Error(t, err)
			assert.True(t, common.IsKind(err, common.KindUnreadableDocument), "got %v", err)
		})
	}
}

func TestNormalize(t *testing.T) {
	in := "  Line one\t\twith   gaps  \r\n\r\n\r\n\r\nLine two  \n"
	assert.Equal(t, "Line one with gaps\n\nLine two", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestDocument_ContentHash(t *testing.T) {
	a := Document{Name: "a.pdf", Data: []byte("x")}
	b := Document{Name: "b.pdf", Data: []byte("x")}
	assert.Equal(t, a.ContentHash(), b.ContentHash())
	assert.Len(t, a.ContentHash(), 64)
	assert.NotEqual(t, a.ContentHash(), Document{Data: []byte("y")}.ContentHash())
}
