package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/market-views/internal/entity"
)

var march1 = time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)

func TestNormalize_Scenario(t *testing.T) {
	elements := []map[string]string{{
		"nome_gestora":     "Acme",
		"pais_regiao":      "Brazil",
		"classe_ativo":     "Equities",
		"visao_sentimento": "Otimista",
		"tese_principal":   "growth",
	}}

	got := Normalize(elements, "report.pdf", march1)

	require.Len(t, got, 1)
	assert.Equal(t, entity.InvestmentView{
		ExtractionDate: "2024-03-01",
		ReportDate:     "",
		ManagerName:    "Acme",
		SourceDocument: "report.pdf",
		Region:         "Brazil",
		AssetClass:     "Equities",
		AssetSubclass:  "",
		Sentiment:      "Otimista",
		Thesis:         "growth",
	}, got[0])
	assert.Equal(t, []string{"2024-03-01", "", "Acme", "report.pdf", "Brazil", "Equities", "", "Otimista", "growth"}, got[0].Row())
}

func TestNormalize_ProvenanceIsNeverModelSourced(t *testing.T) {
	elements := []map[string]string{
		{
			"extraction_date": "1999-01-01",
			"source_document": "spoofed.pdf",
			"nome_gestora":    "Acme",
		},
		{
			"data_extracao":    "1999-01-01",
			"documento_origem": "spoofed.pdf",
		},
	}

	got := Normalize(elements, "real.pdf", march1)

	require.Len(t, got, 2)
	for _, v := range got {
		assert.Equal(t, "2024-03-01", v.ExtractionDate)
		assert.Equal(t, "real.pdf", v.SourceDocument)
		assert.Len(t, v.Row(), len(entity.Columns))
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	got := Normalize(nil, "report.pdf", march1)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = Normalize([]map[string]string{}, "report.pdf", march1)
	assert.Empty(t, got)
}

func TestNormalize_EmptyElementGetsAllDefaults(t *testing.T) {
	got := Normalize([]map[string]string{{}}, "r.pdf", march1)
	require.Len(t, got, 1)
	assert.Equal(t, entity.InvestmentView{ExtractionDate: "2024-03-01", SourceDocument: "r.pdf"}, got[0])
}

func TestNormalize_Aliases(t *testing.T) {
	t.Run("canonical names are accepted", func(t *testing.T) {
		got := Normalize([]map[string]string{{
			"manager_name": "Beta AM",
			"region":       "US",
			"report_date":  "Q1 2024",
		}}, "b.pdf", march1)
		require.Len(t, got, 1)
		assert.Equal(t, "Beta AM", got[0].ManagerName)
		assert.Equal(t, "US", got[0].Region)
		assert.Equal(t, "Q1 2024", got[0].ReportDate)
	})

	t.Run("preferred key wins over alias", func(t *testing.T) {
		got := Normalize([]map[string]string{{
			"nome_gestora": "Preferred",
			"manager_name": "Alias",
		}}, "b.pdf", march1)
		assert.Equal(t, "Preferred", got[0].ManagerName)
	})

	t.Run("keys match case-insensitively", func(t *testing.T) {
		got := Normalize([]map[string]string{{"Nome_Gestora": "Gamma"}}, "g.pdf", march1)
		assert.Equal(t, "Gamma", got[0].ManagerName)
	})
}

func TestSchema_Defaults(t *testing.T) {
	s := Schema{Fields: []FieldSpec{
		{Column: entity.ColRegion, Keys: []string{"pais_regiao"}, Default: "Global"},
	}}

	got := s.Normalize([]map[string]string{{}}, "d.pdf", march1)
	require.Len(t, got, 1)
	assert.Equal(t, "Global", got[0].Region)
}

func TestSchema_OracleKeys(t *testing.T) {
	assert.Equal(t, []string{
		"data_referencia", "nome_gestora", "pais_regiao", "classe_ativo",
		"subclasse_ativo", "visao_sentimento", "tese_principal",
	}, DefaultSchema.OracleKeys())
}
