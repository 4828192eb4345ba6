package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/market-views/internal/common"
	"github.com/joseph-ayodele/market-views/internal/entity"
	"github.com/joseph-ayodele/market-views/internal/store"
	"github.com/joseph-ayodele/market-views/internal/views"
)

func sample() []entity.InvestmentView {
	return []entity.InvestmentView{
		{ExtractionDate: "2024-03-01", ManagerName: "Acme", SourceDocument: "a.pdf", Region: "Brazil", AssetClass: "Equities", Sentiment: "Otimista", Thesis: "growth"},
		{ExtractionDate: "2024-03-01", ManagerName: "Acme", SourceDocument: "a.pdf", Region: "US", AssetClass: "Fixed Income", Sentiment: "Neutro"},
		{ExtractionDate: "2024-03-02", ManagerName: "Beta", SourceDocument: "b.pdf", Region: "brazil ", AssetClass: "Fixed Income", Sentiment: "Pessimista"},
		{ExtractionDate: "2024-03-02", ManagerName: "Beta", SourceDocument: "b.pdf", Region: "", AssetClass: "Commodities"},
	}
}

func TestFilter_Apply(t *testing.T) {
	records := sample()

	assert.Len(t, Filter{}.Apply(records), 4)

	brazil := Filter{Region: "BRAZIL"}.Apply(records)
	require.Len(t, brazil, 2)
	assert.Equal(t, "Acme", brazil[0].ManagerName)
	assert.Equal(t, "Beta", brazil[1].ManagerName)

	both := Filter{Region: "brazil", AssetClass: "fixed income"}.Apply(records)
	require.Len(t, both, 1)
	assert.Equal(t, "Pessimista", both[0].Sentiment)

	assert.Empty(t, Filter{Region: "Bra"}.Apply(records), "no substring matches")
}

func TestDistinctValues(t *testing.T) {
	records := sample()
	assert.Equal(t, []string{"Brazil", "US"}, Regions(records))
	assert.Equal(t, []string{"Commodities", "Equities", "Fixed Income"}, AssetClasses(records))
	assert.Empty(t, Regions(nil))
}

func TestService_Load(t *testing.T) {
	ctx := context.Background()
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "views.csv"))
	svc := NewService(fs, nil)

	_, err := svc.Load(ctx)
	assert.True(t, common.IsKind(err, common.KindRemoteReadError))

	rows, err := views.EncodeRows(sample())
	require.NoError(t, err)
	_, err = fs.Put(ctx, views.Header+"\n"+rows, "", "seed")
	require.NoError(t, err)

	got, err := svc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestService_LoadRejectsForeignFile(t *testing.T) {
	ctx := context.Background()
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "views.csv"))
	_, err := fs.Put(ctx, "foo,bar\n1,2\n", "", "seed")
	require.NoError(t, err)

	_, err = NewService(fs, nil).Load(ctx)
	assert.True(t, common.IsKind(err, common.KindRemoteReadError))
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	long := entity.InvestmentView{ManagerName: "Gamma", Thesis: strings.Repeat("á", 100)}
	require.NoError(t, RenderTable(&buf, append(sample(), long)))

	out := buf.String()
	assert.Contains(t, out, "manager_name")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Fixed Income")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, strings.Repeat("á", 100))
	assert.Contains(t, out, "5 view(s)")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())

	buf.Reset()
	require.NoError(t, RenderJSON(&buf, sample()[:1]))
	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Brazil", got[0]["region"])
	assert.Len(t, got[0], len(entity.Columns))
}

func TestRenderList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderList(&buf, []string{"Brazil", "US"}))
	assert.Equal(t, "Brazil\nUS\n", buf.String())
}

func TestExportXLSX(t *testing.T) {
	b, err := ExportXLSX(sample(), nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, xlsxHeaders, rows[0])
	assert.Equal(t, "Acme", rows[1][2])
	assert.Equal(t, "growth", rows[1][8])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "çã…", truncate("çãõü", 3))
	assert.Equal(t, "abc", truncate("abc", 0))
}
