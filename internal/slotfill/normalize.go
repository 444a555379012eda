package slotfill

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerPL = cases.Lower(language.Polish)

// normalizeQuestion canonicalizes a follow-up question for dedup:
// case-folded (Polish-aware), trimmed, inner whitespace collapsed.
func normalizeQuestion(q string) string {
	return lowerPL.String(strings.Join(strings.Fields(q), " "))
}

// dedupQuestions removes exact and near-duplicate questions, keeping the
// first occurrence and its original wording.
func dedupQuestions(qs []string) []string {
	seen := make(map[string]bool, len(qs))
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		norm := normalizeQuestion(q)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, strings.TrimSpace(q))
	}
	return out
}
