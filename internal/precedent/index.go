// Package precedent finds the previously adjudicated case most similar to
// the one being decided. The index is an external collaborator from the
// decision engine's point of view: it may fail, and the engine then carries
// an explicit no-precedent value instead of blocking.
package precedent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wypadek/karta-cli/internal/model"
)

// Index returns the nearest precedent for a finalized draft.
type Index interface {
	Nearest(ctx context.Context, draft *model.CaseRecord, narrative string) (model.Precedent, error)
}

// CaseSource lists persisted cases to compare against. The store satisfies
// this.
type CaseSource interface {
	ListCases(ctx context.Context, filter model.CaseFilter) ([]model.Case, error)
}

// StoreIndex is a token-overlap similarity index over persisted cases.
type StoreIndex struct {
	source   CaseSource
	maxCases int
}

// NewStoreIndex builds an Index over the given case source.
func NewStoreIndex(source CaseSource) *StoreIndex {
	return &StoreIndex{source: source, maxCases: 200}
}

var lowerPL = cases.Lower(language.Polish)

// Nearest scores candidates by narrative token overlap, with a bonus for a
// matching accident type. No candidates is an error so callers degrade
// explicitly.
func (i *StoreIndex) Nearest(ctx context.Context, draft *model.CaseRecord, narrative string) (model.Precedent, error) {
	cases, err := i.source.ListCases(ctx, model.CaseFilter{Limit: i.maxCases})
	if err != nil {
		return model.Precedent{}, eris.Wrap(err, "precedent: list cases")
	}
	if len(cases) == 0 {
		return model.Precedent{}, eris.New("precedent: empty index")
	}

	query := tokens(draft.Accident.Description + " " + draft.Accident.Cause + " " + narrative)
	queryType := draft.Accident.LegalQualification.LegalBasis

	type scored struct {
		c     model.Case
		score float64
	}
	ranked := make([]scored, 0, len(cases))
	for _, c := range cases {
		s := overlap(query, tokens(c.Narrative))
		if c.Record != nil && queryType != "" && c.Record.Accident.LegalQualification.LegalBasis == queryType {
			s += 0.1
		}
		ranked = append(ranked, scored{c: c, score: s})
	}
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	best := ranked[0]
	return model.Precedent{
		ID: best.c.ID,
		Similarity: fmt.Sprintf("najbliższy precedens (%s, %s): zbieżność opisu zdarzenia %.0f%%",
			best.c.Type, best.c.Status, best.score*100),
	}, nil
}

// tokens splits text into a set of folded words of three or more runes.
func tokens(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.FieldsFunc(lowerPL.String(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r < 0x80
	}) {
		if len([]rune(w)) >= 3 {
			out[w] = true
		}
	}
	return out
}

// overlap is the Jaccard similarity of two token sets.
func overlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
