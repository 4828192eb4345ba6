package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/market-views/internal/entity"
	"github.com/joseph-ayodele/market-views/internal/views"
)

// testEnv is a config file pointing at a local catalog, a sqlite ledger and a fake
// model endpoint.
type testEnv struct {
	dir     string
	config  string
	catalog string
	calls   int
}

func newTestEnv(t *testing.T, modelReply string) *testEnv {
	t.Helper()
	env := &testEnv{dir: t.TempDir()}
	env.catalog = filepath.Join(env.dir, "views.csv")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.calls++
		reply, _ := json.Marshal(modelReply)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":%s}]},"finishReason":"STOP"}]}`, reply)
	}))
	t.Cleanup(srv.Close)

	env.config = filepath.Join(env.dir, "config.yaml")
	cfg := fmt.Sprintf(`llm_provider: gemini
gemini_api_key: test-key
gemini_base_url: %s
store_backend: file
store_file_path: %s
db_url: "file:%s"
append_backoff: 1ms
timezone: UTC
`, srv.URL, env.catalog, filepath.Join(env.dir, "ledger.db"))
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0o644))
	return env
}

func (e *testEnv) run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// writePDF writes a one-page PDF with a single line of text.
func writePDF(t *testing.T, path, text string) {
	t.Helper()
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj("<< /Type /Pages /Kids [4 0 R] /Count 1 >>")
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents 5 0 R >>")
	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

const scenarioReply = "```json\n" + `[{"nome_gestora":"Acme","pais_regiao":"Brazil","classe_ativo":"Equities","visao_sentimento":"Otimista","tese_principal":"growth"}]` + "\n```"

func TestVersionCmd(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "market-views version dev\n", out.String())
}

func TestInitStore(t *testing.T) {
	env := newTestEnv(t, "[]")

	out, err := env.run("init-store")
	require.NoError(t, err)
	assert.Contains(t, out, "created file://"+env.catalog)

	data, err := os.ReadFile(env.catalog)
	require.NoError(t, err)
	assert.Equal(t, views.Header+"\n", string(data))

	out, err = env.run("init-store")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestExtractThenCatalog(t *testing.T) {
	env := newTestEnv(t, scenarioReply)
	_, err := env.run("init-store")
	require.NoError(t, err)

	pdfPath := filepath.Join(env.dir, "report.pdf")
	writePDF(t, pdfPath, "Acme sees growth in Brazil")

	out, err := env.run("extract", pdfPath)
	require.NoError(t, err)
	assert.Contains(t, out, "report.pdf: appended 1 view(s)")
	assert.Equal(t, 1, env.calls)

	out, err = env.run("catalog", "--format", "json", "--region", "brazil")
	require.NoError(t, err)
	var got []entity.InvestmentView
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].ManagerName)
	assert.Equal(t, "report.pdf", got[0].SourceDocument)
	assert.Equal(t, "Otimista", got[0].Sentiment)

	out, err = env.run("catalog", "--format", "json", "--asset-class", "Bonds")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	out, err = env.run("catalog", "regions")
	require.NoError(t, err)
	assert.Equal(t, "Brazil\n", out)

	out, err = env.run("runs")
	require.NoError(t, err)
	assert.Contains(t, out, "report.pdf")
	assert.Contains(t, out, "OK")
}

func TestExtract_DryRunLeavesCatalogAlone(t *testing.T) {
	env := newTestEnv(t, scenarioReply)
	_, err := env.run("init-store")
	require.NoError(t, err)

	pdfPath := filepath.Join(env.dir, "report.pdf")
	writePDF(t, pdfPath, "Acme sees growth in Brazil")

	out, err := env.run("extract", "--dry-run", pdfPath)
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")

	data, err := os.ReadFile(env.catalog)
	require.NoError(t, err)
	assert.Equal(t, views.Header+"\n", string(data))
}

func TestExtract_ProseReplyShowsRawResponse(t *testing.T) {
	env := newTestEnv(t, "Sorry, I cannot help with that.")
	pdfPath := filepath.Join(env.dir, "report.pdf")
	writePDF(t, pdfPath, "Acme")

	out, err := env.run("extract", pdfPath)
	require.ErrorIs(t, err, errRunsFailed)
	assert.Contains(t, out, "failed at parse")
	assert.Contains(t, out, "Sorry, I cannot help with that.")
}

func TestExtract_UnreadablePDF(t *testing.T) {
	env := newTestEnv(t, "[]")
	path := filepath.Join(env.dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))

	out, err := env.run("extract", path)
	require.Error(t, err)
	assert.Contains(t, out, "failed at extract")
	assert.Zero(t, env.calls)
}

func TestExtract_NeedsInput(t *testing.T) {
	env := newTestEnv(t, "[]")
	_, err := env.run("extract")
	assert.Error(t, err)
}

func TestCatalog_XLSXNeedsOut(t *testing.T) {
	env := newTestEnv(t, "[]")
	_, err := env.run("init-store")
	require.NoError(t, err)

	_, err = env.run("catalog", "--format", "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--out")

	out := filepath.Join(env.dir, "views.xlsx")
	stdout, err := env.run("catalog", "--format", "xlsx", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 0 view(s)")
	assert.FileExists(t, out)
}

func TestDoctor(t *testing.T) {
	env := newTestEnv(t, "[]")
	_, err := env.run("init-store")
	require.NoError(t, err)

	out, err := env.run("doctor")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(out, "ok    "))
}

func TestResubmit_InvalidID(t *testing.T) {
	env := newTestEnv(t, "[]")
	_, err := env.run("resubmit", "not-a-uuid")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "json", "warn")
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, "xml", "info")
	assert.Error(t, err)
	_, err = newLogger(&buf, "text", "loud")
	assert.Error(t, err)
}
