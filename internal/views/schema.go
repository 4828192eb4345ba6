package views

import (
	"sort"
	"strings"

	"github.com/joseph-ayodele/market-views/internal/entity"
)

// FieldSpec describes one model-supplied column: the keys the model may use for it
// (preferred key first) and the value stored when none of them is present.
type FieldSpec struct {
	Column      string
	Keys        []string
	Default     string
	Description string
}

// Schema is the set of content fields the model is asked for.
type Schema struct {
	Fields []FieldSpec
}

// DefaultSchema lists the seven content fields with the Portuguese keys used in the
// extraction prompt and the canonical column names as aliases.
var DefaultSchema = Schema{Fields: []FieldSpec{
	{
		Column:      entity.ColReportDate,
		Keys:        []string{"data_referencia", entity.ColReportDate},
		Description: "período ou data de referência do relatório",
	},
	{
		Column:      entity.ColManagerName,
		Keys:        []string{"nome_gestora", entity.ColManagerName},
		Description: "nome da instituição que publicou o relatório",
	},
	{
		Column:      entity.ColRegion,
		Keys:        []string{"pais_regiao", entity.ColRegion},
		Description: "país ou região a que a visão se refere",
	},
	{
		Column:      entity.ColAssetClass,
		Keys:        []string{"classe_ativo", entity.ColAssetClass},
		Description: "classe de ativo principal (ex.: Ações, Renda Fixa, Moedas)",
	},
	{
		Column:      entity.ColAssetSubclass,
		Keys:        []string{"subclasse_ativo", entity.ColAssetSubclass},
		Description: "subclasse ou segmento do ativo, se houver",
	},
	{
		Column:      entity.ColSentiment,
		Keys:        []string{"visao_sentimento", entity.ColSentiment},
		Description: "sentimento da gestora",
	},
	{
		Column:      entity.ColThesis,
		Keys:        []string{"tese_principal", entity.ColThesis},
		Description: "trecho ou resumo que justifica a visão",
	},
}}

// OracleKeys returns the preferred key of every field, in schema order.
func (s Schema) OracleKeys() []string {
	keys := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if len(f.Keys) > 0 {
			keys = append(keys, f.Keys[0])
		}
	}
	return keys
}

// lookup finds the value for a field. Exact key matches win; otherwise keys are compared
// case-insensitively in sorted order so the result does not depend on map iteration.
func (f FieldSpec) lookup(element map[string]string) (string, bool) {
	for _, k := range f.Keys {
		if v, ok := element[k]; ok {
			return v, true
		}
	}

	names := make([]string, 0, len(element))
	for k := range element {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, want := range f.Keys {
		for _, have := range names {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return element[have], true
			}
		}
	}
	return "", false
}
