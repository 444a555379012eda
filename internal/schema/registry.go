// Package schema declares the canonical shape of the accident card: every
// scalar leaf of the case record, addressed by dotted path, with its
// required/optional status, value kind and validation predicate. The slot
// filler and decision engine never touch a path this registry does not know.
package schema

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wypadek/karta-cli/internal/model"
)

// Kind is the value kind of a leaf.
type Kind string

const (
	KindText Kind = "text"
	KindDate Kind = "date"
	KindBool Kind = "bool"
	KindEnum Kind = "enum"
)

// Leaf declares one scalar field of the case record.
type Leaf struct {
	Path        string
	Required    bool
	Kind        Kind
	Description string
	Example     string
	Enum        []string
	Pattern     *regexp.Regexp

	// Get and Set bind the path to its slot in the typed record. All leaf
	// values cross this boundary as text; bool leaves carry "true"/"false".
	Get func(*model.CaseRecord) string
	Set func(*model.CaseRecord, string)
}

// Description pairs a field description with an example, for prompting.
type Description struct {
	Description string
	Example     string
}

// Registry is the indexed, ordered collection of leaf definitions.
type Registry struct {
	leaves   []Leaf
	byPath   map[string]*Leaf
	required []string
}

// lowerPL folds case the Polish way, so paths and questions containing
// diacritics (Ł, Ś, Ż) normalize consistently.
var lowerPL = cases.Lower(language.Polish)

// NormalizePath canonicalizes a leaf path for lookup and dedup:
// case-folded, trimmed, with slash separators rewritten to dots.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "/", ".")
	p = strings.ReplaceAll(p, "\\", ".")
	p = strings.ReplaceAll(p, " ", "")
	return lowerPL.String(p)
}

// New builds a Registry from leaf definitions, indexing by normalized path.
func New(leaves []Leaf) *Registry {
	r := &Registry{
		leaves: leaves,
		byPath: make(map[string]*Leaf, len(leaves)),
	}
	for i := range r.leaves {
		l := &r.leaves[i]
		r.byPath[NormalizePath(l.Path)] = l
		if l.Required {
			r.required = append(r.required, l.Path)
		}
	}
	return r
}

// Paths returns every registered leaf path in declaration order.
func (r *Registry) Paths() []string {
	out := make([]string, len(r.leaves))
	for i := range r.leaves {
		out[i] = r.leaves[i].Path
	}
	return out
}

// RequiredPaths returns all required leaf paths in declaration order.
func (r *Registry) RequiredPaths() []string {
	out := make([]string, len(r.required))
	copy(out, r.required)
	return out
}

// Lookup returns the leaf for the given path, or nil if unregistered.
func (r *Registry) Lookup(path string) *Leaf {
	return r.byPath[NormalizePath(path)]
}

// Describe returns the description and example for a registered path.
func (r *Registry) Describe(path string) (Description, error) {
	l := r.Lookup(path)
	if l == nil {
		return Description{}, &model.SchemaViolationError{Path: path, Reason: "unregistered path"}
	}
	return Description{Description: l.Description, Example: l.Example}, nil
}

// ValidateLeaf checks a candidate value against the leaf's predicate.
// Unknown paths fail closed with a SchemaViolationError.
func (r *Registry) ValidateLeaf(path, value string) (bool, error) {
	l := r.Lookup(path)
	if l == nil {
		return false, &model.SchemaViolationError{Path: path, Reason: "unregistered path"}
	}
	return l.validate(value), nil
}

// Get reads the leaf value from a record. Unknown paths fail closed.
func (r *Registry) Get(rec *model.CaseRecord, path string) (string, error) {
	l := r.Lookup(path)
	if l == nil {
		return "", &model.SchemaViolationError{Path: path, Reason: "unregistered path"}
	}
	return l.Get(rec), nil
}

// Set writes a leaf value into a record. Unknown paths fail closed.
func (r *Registry) Set(rec *model.CaseRecord, path, value string) error {
	l := r.Lookup(path)
	if l == nil {
		return &model.SchemaViolationError{Path: path, Reason: "unregistered path"}
	}
	l.Set(rec, value)
	return nil
}

func (l *Leaf) validate(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if l.Pattern != nil && !l.Pattern.MatchString(lowerPL.String(value)) {
		return false
	}
	switch l.Kind {
	case KindDate:
		return isISODate(value)
	case KindBool:
		return value == "true" || value == "false"
	case KindEnum:
		folded := lowerPL.String(value)
		for _, e := range l.Enum {
			if folded == lowerPL.String(e) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

func isISODate(v string) bool {
	_, err := time.Parse("2006-01-02", v)
	return err == nil
}
