package textindex

import (
	"strings"
	"unicode"
)

// matchExpression turns free text into an FTS5 query in which every word must appear. Each word
// is quoted so operators and column filters typed by users are matched as plain text. It returns
// "" when the text has no letters or digits.
func matchExpression(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + strings.ReplaceAll(w, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// relevance maps an FTS5 bm25 value (more negative is better) onto (0, 1).
func relevance(bm25 float64) float64 {
	r := -bm25
	if r <= 0 {
		return 0
	}
	return r / (1 + r)
}
