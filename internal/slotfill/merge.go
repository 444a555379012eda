package slotfill

import (
	"strings"

	"go.uber.org/zap"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/schema"
)

// MergePolicy decides how a non-empty incoming value meets a non-empty
// existing one. The statute form gives no rule here; most-recent-wins is the
// default because a later statement usually corrects an earlier one.
type MergePolicy string

const (
	// LastNonEmptyWins lets a newer non-empty value replace an older one.
	LastNonEmptyWins MergePolicy = "last_non_empty_wins"
	// FirstWins keeps the first non-empty value ever merged.
	FirstWins MergePolicy = "first_wins"
)

// mergeFragment applies a validated fragment to the draft in place.
// Empty incoming values never erase a filled leaf, a value failing its
// leaf predicate is dropped as extraction noise, and list sections
// (witnesses, attachments) merge by their own rules.
func (f *Filler) mergeFragment(draft *model.CaseRecord, frag *model.Fragment) {
	if frag == nil {
		return
	}

	// Registry order keeps the merge deterministic regardless of map order.
	for _, path := range f.reg.Paths() {
		raw, ok := leafValue(frag.Leaves, path)
		if !ok {
			continue
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			continue // no-overwrite-with-empty
		}
		ok, err := f.reg.ValidateLeaf(path, value)
		if err != nil || !ok {
			zap.L().Warn("slotfill: dropping leaf failing its predicate",
				zap.String("path", path),
				zap.String("value", value),
			)
			continue
		}
		current, _ := f.reg.Get(draft, path)
		if current != "" && f.policy == FirstWins {
			continue
		}
		_ = f.reg.Set(draft, path, value)
	}

	if len(frag.Witnesses) > 0 {
		draft.Witnesses = append([]model.Witness(nil), frag.Witnesses...)
		draft.WitnessesKnown = true
	} else if frag.WitnessesConfirmed {
		draft.WitnessesKnown = true
	}

	for _, a := range frag.Attachments {
		a = strings.TrimSpace(a)
		if a == "" || containsFold(draft.MetaProcess.Attachments, a) {
			continue
		}
		draft.MetaProcess.Attachments = append(draft.MetaProcess.Attachments, a)
	}
}

// leafValue finds a fragment value for a registered path, tolerating
// non-canonical spellings of the same path.
func leafValue(leaves map[string]string, path string) (string, bool) {
	if v, ok := leaves[path]; ok {
		return v, true
	}
	want := schema.NormalizePath(path)
	for k, v := range leaves {
		if schema.NormalizePath(k) == want {
			return v, true
		}
	}
	return "", false
}

func containsFold(xs []string, s string) bool {
	for _, x := range xs {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
