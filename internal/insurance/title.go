// Package insurance resolves the art. 3 ust. 3 insurance title from the
// claimant's form of employment, including the statutory texts entered
// verbatim into pkt II.5 of the accident card.
package insurance

import (
	"fmt"

	"github.com/wypadek/karta-cli/internal/model"
)

// BasisType is the claimant's form of employment or activity.
type BasisType string

const (
	BasisZlecenie     BasisType = "ZLECENIE"
	BasisDzialalnosc  BasisType = "DZIALALNOSC"
	BasisWspolpraca   BasisType = "WSPOLPRACA"
	BasisStypendium   BasisType = "STYPENDIUM_SPORTOWE"
	BasisPoselSenator BasisType = "POSEL_SENATOR"
	BasisDuchowny     BasisType = "DUCHOWNY"
)

type definition struct {
	point string
	text  string
}

// definitions maps each basis to its statutory point and full text.
// Source: art. 3 ust. 3 ustawy o ubezpieczeniu społecznym z tytułu wypadków
// przy pracy i chorób zawodowych.
var definitions = map[BasisType]definition{
	BasisZlecenie: {
		point: "pkt 6",
		text:  "wykonywanie pracy na podstawie umowy agencyjnej lub umowy zlecenia albo innej umowy o świadczenie usług, do której zgodnie z Kodeksem cywilnym stosuje się przepisy dotyczące zlecenia",
	},
	BasisDzialalnosc: {
		point: "pkt 8",
		text:  "prowadzenie działalności pozarolniczej w rozumieniu przepisów o systemie ubezpieczeń społecznych",
	},
	BasisWspolpraca: {
		point: "pkt 9",
		text:  "wykonywanie współpracy przy prowadzeniu działalności pozarolniczej w rozumieniu przepisów o systemie ubezpieczeń społecznych",
	},
	BasisStypendium: {
		point: "pkt 7",
		text:  "pobieranie stypendium sportowego",
	},
	BasisPoselSenator: {
		point: "pkt 1",
		text:  "wykonywanie mandatu posła lub posła do Parlamentu Europejskiego wybranego w Rzeczypospolitej Polskiej oraz sprawowanie mandatu senatora",
	},
	BasisDuchowny: {
		point: "pkt 10",
		text:  "bycie duchownym, zakonnikiem lub zakonnicą zakonów i zgromadzeń zakonnych oraz inną osobą, o której mowa w art. 8 ust. 10–12 ustawy o systemie ubezpieczeń społecznych",
	},
}

// BasisForCode maps a statutory point back to the basis type, for drafts
// where only the pkt II.5 code is known.
func BasisForCode(code string) (BasisType, bool) {
	for basis, def := range definitions {
		if def.point == code {
			return basis, true
		}
	}
	return "", false
}

// Resolution is the outcome of a title lookup. Covered=false means the
// claimant likely has no accident insurance title at all and the card may
// not apply.
type Resolution struct {
	Covered bool
	Title   model.InsuranceTitle
	Note    string
}

// Resolve returns the insurance title for a basis type. Students under 26
// on umowa zlecenie are normally outside the accident insurance scheme, so
// that combination resolves to not covered.
func Resolve(basis BasisType, studentUnder26 bool) (Resolution, error) {
	if basis == BasisZlecenie && studentUnder26 {
		return Resolution{
			Covered: false,
			Note:    "Studenci poniżej 26 roku życia na umowie zlecenie zazwyczaj nie podlegają ubezpieczeniu wypadkowemu.",
		}, nil
	}

	def, ok := definitions[basis]
	if !ok {
		return Resolution{}, fmt.Errorf("insurance: unknown basis type %q", basis)
	}

	return Resolution{
		Covered: true,
		Title: model.InsuranceTitle{
			Code:        def.point,
			Description: def.text,
		},
		Note: fmt.Sprintf("art. 3 ust. 3 %s – %s", def.point, def.text),
	}, nil
}
