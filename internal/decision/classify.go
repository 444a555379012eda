package decision

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wypadek/karta-cli/internal/model"
)

var lowerPL = cases.Lower(language.Polish)

// DeriveAccidentType classifies the event location relative to work from
// the description and narrative. Commuting phrases win over the default
// at-work classification.
func DeriveAccidentType(draft *model.CaseRecord, narrative string) model.AccidentType {
	text := lowerPL.String(draft.Accident.Description + " " + narrative)
	switch {
	case strings.Contains(text, "w drodze do pracy") || strings.Contains(text, "drodze na budowę") || strings.Contains(text, "jadąc do pracy"):
		return model.TypeToWork
	case strings.Contains(text, "w drodze z pracy") || strings.Contains(text, "wracając z pracy") || strings.Contains(text, "po pracy w drodze"):
		return model.TypeFromWork
	default:
		return model.TypeAtWork
	}
}

// DeriveSeverity grades the accident from injury language. Fatal and
// collective markers dominate; heavy-injury markers beat the light default.
func DeriveSeverity(draft *model.CaseRecord, narrative string) model.AccidentSeverity {
	text := lowerPL.String(draft.Accident.Description + " " + narrative)
	switch {
	case containsAny(text, "śmierć", "śmierteln", "zgon", "nie przeżył"):
		return model.SeverityFatal
	case containsAny(text, "zbiorow", "kilku poszkodowanych", "kilka osób poszkodowanych"):
		return model.SeverityCollective
	case containsAny(text, "amputac", "utrata wzroku", "utrata słuchu", "ciężki uraz", "ciężkie obrażenia", "uraz kręgosłupa", "oparzenia iii"):
		return model.SeveritySevere
	default:
		return model.SeverityLight
	}
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
