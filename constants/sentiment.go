package constants

import (
	"strings"
)

type Sentiment string

const (
	Optimistic  Sentiment = "Optimistic"
	Neutral     Sentiment = "Neutral"
	Pessimistic Sentiment = "Pessimistic"
)

var allSentiments = []Sentiment{
	Optimistic,
	Neutral,
	Pessimistic,
}

// OracleSentimentLabels are the labels the extraction prompt asks the model to use.
var OracleSentimentLabels = []string{"Otimista", "Neutro", "Pessimista"}

func AsStringSlice() []string {
	result := make([]string, len(allSentiments))
	for i, s := range allSentiments {
		result[i] = string(s)
	}
	return result
}

// CanonicalizeSentiment maps a free-text label onto the closed sentiment set.
// Portuguese labels are the same three members in the report locale.
func CanonicalizeSentiment(input string) (Sentiment, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Sentiment{
		"otimista":   Optimistic,
		"positivo":   Optimistic,
		"neutro":     Neutral,
		"neutra":     Neutral,
		"pessimista": Pessimistic,
		"negativo":   Pessimistic,
	}
	if s, ok := synonyms[normalized]; ok {
		return s, true
	}

	for _, s := range allSentiments {
		if normalized == strings.ToLower(string(s)) {
			return s, true
		}
	}
	return "", false
}
