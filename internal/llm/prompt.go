package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/market-views/constants"
	"github.com/joseph-ayodele/market-views/internal/views"
)

// textMarker opens the document section of the prompt; everything after it is the
// extracted text, embedded verbatim.
const textMarker = "TEXTO DO RELATÓRIO:"

// BuildExtractionPrompt composes the fixed instruction template around the document text.
func BuildExtractionPrompt(schema views.Schema, text string) string {
	var fields strings.Builder
	for _, f := range schema.Fields {
		if len(f.Keys) == 0 {
			continue
		}
		fmt.Fprintf(&fields, "- %q: %s\n", f.Keys[0], f.Description)
	}

	labels := make([]string, 0, len(constants.OracleSentimentLabels))
	for _, l := range constants.OracleSentimentLabels {
		labels = append(labels, fmt.Sprintf("%q", l))
	}

	parts := []string{
		"Você é um analista que lê relatórios de gestoras de investimento.",
		"Identifique cada visão de investimento expressa no texto abaixo. Cada visão é um objeto JSON com exatamente estas chaves:",
		strings.TrimRight(fields.String(), "\n"),
		fmt.Sprintf("O campo %q deve ser exatamente um destes valores: %s.", keyFor(schema, "sentiment"), strings.Join(labels, ", ")),
		"Se uma informação não estiver no texto, use uma string vazia \"\". Todos os valores são strings.",
		"Responda SOMENTE com um array JSON desses objetos, sem texto antes ou depois. Se não houver nenhuma visão, responda [].",
		"",
		textMarker,
		text,
	}
	return strings.Join(parts, "\n")
}

func keyFor(schema views.Schema, column string) string {
	for _, f := range schema.Fields {
		if f.Column == column && len(f.Keys) > 0 {
			return f.Keys[0]
		}
	}
	return column
}
