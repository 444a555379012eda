package schema

import (
	"regexp"

	"github.com/wypadek/karta-cli/internal/model"
)

// documentKinds are the identity document kinds accepted on the card.
var documentKinds = []string{"dowód osobisty", "paszport"}

// insuranceCodeRe matches an art. 3 ust. 3 point reference, with or
// without the full article prefix ("pkt 6", "art. 3 ust. 3 pkt 6").
var insuranceCodeRe = regexp.MustCompile(`^(art\.\s*3\s*ust\.\s*3\s*)?pkt\s*([1-9]|1[0-2])$`)

// AccidentCard returns the registry for the ZUS accident card (Karta
// Wypadku). Declaration order follows the card sections, so missing-field
// prompts surface identity data first and process metadata last.
func AccidentCard() *Registry {
	return New([]Leaf{
		// Sekcja I: płatnik składek.
		{
			Path: "employer.employer_name", Required: true, Kind: KindText,
			Description: "Imię i nazwisko lub nazwa płatnika składek (pkt I.1)",
			Example:     "Budimex S.A.",
			Get:         func(c *model.CaseRecord) string { return c.Employer.Name },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.Name = v },
		},
		{
			Path: "employer.hq_address", Required: true, Kind: KindText,
			Description: "Adres siedziby płatnika składek (pkt I.2)",
			Example:     "ul. Siedmiogrodzka 9, 01-204 Warszawa",
			Get:         func(c *model.CaseRecord) string { return c.Employer.Address },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.Address = v },
		},
		{
			Path: "employer.nip", Required: true, Kind: KindText,
			Description: "Numer NIP płatnika (pkt I.3)",
			Example:     "5261003187",
			Get:         func(c *model.CaseRecord) string { return c.Employer.NIP },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.NIP = v },
		},
		{
			Path: "employer.regon", Required: true, Kind: KindText,
			Description: "Numer REGON płatnika (pkt I.3)",
			Example:     "010732630",
			Get:         func(c *model.CaseRecord) string { return c.Employer.REGON },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.REGON = v },
		},
		{
			Path: "employer.pesel", Kind: KindText,
			Description: "Numer PESEL płatnika, gdy brak NIP/REGON (pkt I.3)",
			Get:         func(c *model.CaseRecord) string { return c.Employer.PESEL },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.PESEL = v },
		},
		{
			Path: "employer.id.kind", Kind: KindEnum, Enum: documentKinds,
			Description: "Rodzaj dokumentu tożsamości płatnika",
			Example:     "dowód osobisty",
			Get:         func(c *model.CaseRecord) string { return c.Employer.ID.Kind },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.ID.Kind = v },
		},
		{
			Path: "employer.id.series", Kind: KindText,
			Description: "Seria dokumentu tożsamości płatnika",
			Get:         func(c *model.CaseRecord) string { return c.Employer.ID.Series },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.ID.Series = v },
		},
		{
			Path: "employer.id.number", Kind: KindText,
			Description: "Numer dokumentu tożsamości płatnika",
			Get:         func(c *model.CaseRecord) string { return c.Employer.ID.Number },
			Set:         func(c *model.CaseRecord, v string) { c.Employer.ID.Number = v },
		},

		// Sekcja II: poszkodowany.
		{
			Path: "injured.first_name", Required: true, Kind: KindText,
			Description: "Imię poszkodowanego (pkt II.1)",
			Example:     "Jan",
			Get:         func(c *model.CaseRecord) string { return c.Injured.FirstName },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.FirstName = v },
		},
		{
			Path: "injured.last_name", Required: true, Kind: KindText,
			Description: "Nazwisko poszkodowanego (pkt II.1)",
			Example:     "Kowalski",
			Get:         func(c *model.CaseRecord) string { return c.Injured.LastName },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.LastName = v },
		},
		{
			Path: "injured.pesel", Required: true, Kind: KindText,
			Description: "Numer PESEL poszkodowanego (pkt II.2)",
			Example:     "90010112345",
			Get:         func(c *model.CaseRecord) string { return c.Injured.PESEL },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.PESEL = v },
		},
		{
			Path: "injured.id.kind", Required: true, Kind: KindEnum, Enum: documentKinds,
			Description: "Rodzaj dokumentu tożsamości poszkodowanego (pkt II.2)",
			Example:     "dowód osobisty",
			Get:         func(c *model.CaseRecord) string { return c.Injured.ID.Kind },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.ID.Kind = v },
		},
		{
			Path: "injured.id.series", Required: true, Kind: KindText,
			Description: "Seria dokumentu tożsamości poszkodowanego (pkt II.2)",
			Example:     "ABC",
			Get:         func(c *model.CaseRecord) string { return c.Injured.ID.Series },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.ID.Series = v },
		},
		{
			Path: "injured.id.number", Required: true, Kind: KindText,
			Description: "Numer dokumentu tożsamości poszkodowanego (pkt II.2)",
			Example:     "123456",
			Get:         func(c *model.CaseRecord) string { return c.Injured.ID.Number },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.ID.Number = v },
		},
		{
			Path: "injured.birth.date", Required: true, Kind: KindDate,
			Description: "Data urodzenia poszkodowanego (pkt II.3)",
			Example:     "1990-01-01",
			Get:         func(c *model.CaseRecord) string { return c.Injured.Birth.Date },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.Birth.Date = v },
		},
		{
			Path: "injured.birth.place", Required: true, Kind: KindText,
			Description: "Miejsce urodzenia poszkodowanego (pkt II.3)",
			Example:     "Kraków",
			Get:         func(c *model.CaseRecord) string { return c.Injured.Birth.Place },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.Birth.Place = v },
		},
		{
			Path: "injured.address", Required: true, Kind: KindText,
			Description: "Adres zamieszkania poszkodowanego (pkt II.4)",
			Example:     "ul. Długa 5/7, 31-147 Kraków",
			Get:         func(c *model.CaseRecord) string { return c.Injured.Address },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.Address = v },
		},
		{
			Path: "injured.insurance_title.code", Required: true, Kind: KindText, Pattern: insuranceCodeRe,
			Description: "Numer punktu z art. 3 ust. 3 określający tytuł ubezpieczenia (pkt II.5)",
			Example:     "pkt 6",
			Get:         func(c *model.CaseRecord) string { return c.Injured.InsuranceTitle.Code },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.InsuranceTitle.Code = v },
		},
		{
			Path: "injured.insurance_title.description", Required: true, Kind: KindText,
			Description: "Pełny tytuł ubezpieczenia społecznego (pkt II.5)",
			Example:     "wykonywanie pracy na podstawie umowy agencyjnej lub umowy zlecenia",
			Get:         func(c *model.CaseRecord) string { return c.Injured.InsuranceTitle.Description },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.InsuranceTitle.Description = v },
		},
		{
			Path: "injured.is_student", Required: true, Kind: KindBool,
			Description: "Czy poszkodowany jest uczniem lub studentem",
			Example:     "false",
			Get:         func(c *model.CaseRecord) string { return c.Injured.IsStudent },
			Set:         func(c *model.CaseRecord, v string) { c.Injured.IsStudent = v },
		},

		// Sekcja III: przebieg wypadku.
		{
			Path: "accident.date", Required: true, Kind: KindDate,
			Description: "Data zgłoszenia wypadku (pkt III.1)",
			Example:     "2025-12-03",
			Get:         func(c *model.CaseRecord) string { return c.Accident.Date },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.Date = v },
		},
		{
			Path: "accident.reporters_first_name", Required: true, Kind: KindText,
			Description: "Imię osoby zgłaszającej wypadek (pkt III.1)",
			Get:         func(c *model.CaseRecord) string { return c.Accident.ReporterFirstName },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.ReporterFirstName = v },
		},
		{
			Path: "accident.reporters_last_name", Required: true, Kind: KindText,
			Description: "Nazwisko osoby zgłaszającej wypadek (pkt III.1)",
			Get:         func(c *model.CaseRecord) string { return c.Accident.ReporterLastName },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.ReporterLastName = v },
		},
		{
			Path: "accident.description", Required: true, Kind: KindText,
			Description: "Okoliczności, przyczyny, czas i miejsce wypadku, rodzaj i umiejscowienie urazu (pkt III.2)",
			Example:     "Upadek z rusztowania 2025-12-03 o 10:30, złamanie lewego nadgarstka",
			Get:         func(c *model.CaseRecord) string { return c.Accident.Description },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.Description = v },
		},
		{
			Path: "accident.cause", Kind: KindText,
			Description: "Przyczyna zewnętrzna wypadku (np. śliska nawierzchnia, awaria maszyny)",
			Example:     "śliska podłoga",
			Get:         func(c *model.CaseRecord) string { return c.Accident.Cause },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.Cause = v },
		},
		{
			Path: "accident.legal_qualification.is_accident_at_work", Required: true, Kind: KindBool,
			Description: "Czy zdarzenie jest wypadkiem przy pracy (pkt III.4)",
			Example:     "true",
			Get:         func(c *model.CaseRecord) string { return c.Accident.LegalQualification.IsAccidentAtWork },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.LegalQualification.IsAccidentAtWork = v },
		},
		{
			Path: "accident.legal_qualification.legal_basis", Required: true, Kind: KindText, Pattern: insuranceCodeRe,
			Description: "Numer punktu z art. 3 ust. 3 wpisany w kwalifikacji prawnej (pkt III.4)",
			Example:     "pkt 6",
			Get:         func(c *model.CaseRecord) string { return c.Accident.LegalQualification.LegalBasis },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.LegalQualification.LegalBasis = v },
		},
		{
			Path: "accident.legal_qualification.justification", Required: true, Kind: KindText,
			Description: "Uzasadnienie kwalifikacji prawnej i wskazanie dowodów (pkt III.4)",
			Get:         func(c *model.CaseRecord) string { return c.Accident.LegalQualification.Justification },
			Set:         func(c *model.CaseRecord, v string) { c.Accident.LegalQualification.Justification = v },
		},
		{
			Path: "witnesses.confirmed", Required: true, Kind: KindBool,
			Description: "Jawne potwierdzenie listy świadków — również gdy świadków nie było (pkt III.3)",
			Example:     "true",
			Get: func(c *model.CaseRecord) string {
				if c.WitnessesKnown {
					return "true"
				}
				return ""
			},
			Set: func(c *model.CaseRecord, v string) { c.WitnessesKnown = v == "true" },
		},
		{
			Path: "accident_causes.negligence_statement", Kind: KindText,
			Description: "Stwierdzenie dotyczące naruszenia przepisów lub rażącego niedbalstwa (pkt III.5)",
			Example:     "Nie stwierdzono",
			Get:         func(c *model.CaseRecord) string { return c.AccidentCauses.NegligenceStatement },
			Set:         func(c *model.CaseRecord, v string) { c.AccidentCauses.NegligenceStatement = v },
		},
		{
			Path: "sobriety.was_intoxicated", Required: true, Kind: KindBool,
			Description: "Czy stwierdzono stan nietrzeźwości lub środki odurzające (pkt III.6)",
			Example:     "false",
			Get:         func(c *model.CaseRecord) string { return c.Sobriety.WasIntoxicated },
			Set:         func(c *model.CaseRecord, v string) { c.Sobriety.WasIntoxicated = v },
		},
		{
			Path: "sobriety.evidence_description", Kind: KindText,
			Description: "Dowody przyczynienia się do wypadku przez nietrzeźwość albo informacja o odmowie badania (pkt III.6)",
			Get:         func(c *model.CaseRecord) string { return c.Sobriety.EvidenceDescription },
			Set:         func(c *model.CaseRecord, v string) { c.Sobriety.EvidenceDescription = v },
		},

		// Sekcja IV: pozostałe informacje.
		{
			Path: "meta_process.acknowledgment.person_name", Required: true, Kind: KindText,
			Description: "Imię i nazwisko osoby zapoznającej się z kartą (pkt IV.1)",
			Get:         func(c *model.CaseRecord) string { return c.MetaProcess.Acknowledgment.PersonName },
			Set:         func(c *model.CaseRecord, v string) { c.MetaProcess.Acknowledgment.PersonName = v },
		},
		{
			Path: "meta_process.acknowledgment.date", Required: true, Kind: KindDate,
			Description: "Data zapoznania się z treścią karty (pkt IV.1)",
			Example:     "2025-12-10",
			Get:         func(c *model.CaseRecord) string { return c.MetaProcess.Acknowledgment.Date },
			Set:         func(c *model.CaseRecord, v string) { c.MetaProcess.Acknowledgment.Date = v },
		},
		{
			Path: "meta_process.preparation.date", Required: true, Kind: KindDate,
			Description: "Data sporządzenia karty wypadku (pkt IV.2)",
			Example:     "2025-12-10",
			Get:         func(c *model.CaseRecord) string { return c.MetaProcess.Preparation.Date },
			Set:         func(c *model.CaseRecord, v string) { c.MetaProcess.Preparation.Date = v },
		},
		{
			Path: "meta_process.preparation.entity_name", Required: true, Kind: KindText,
			Description: "Nazwa podmiotu sporządzającego kartę (pkt IV.2.1)",
			Get:         func(c *model.CaseRecord) string { return c.MetaProcess.Preparation.EntityName },
			Set:         func(c *model.CaseRecord, v string) { c.MetaProcess.Preparation.EntityName = v },
		},
		{
			Path: "meta_process.preparation.preparer_name", Required: true, Kind: KindText,
			Description: "Imię i nazwisko osoby sporządzającej kartę (pkt IV.2.2)",
			Get:         func(c *model.CaseRecord) string { return c.MetaProcess.Preparation.PreparerName },
			Set:         func(c *model.CaseRecord, v string) { c.MetaProcess.Preparation.PreparerName = v },
		},
		{
			Path: "meta_process.delay_reason", Kind: KindText,
			Description: "Przeszkody uniemożliwiające sporządzenie karty w terminie 14 dni (pkt IV.3)",
			Get:         func(c *model.CaseRecord) string { return c.MetaProcess.DelayReason },
			Set:         func(c *model.CaseRecord, v string) { c.MetaProcess.DelayReason = v },
		},
		{
			Path: "meta_process.receipt_date", Kind: KindDate,
			Description: "Data odebrania karty (pkt IV.4)",
			Get:         func(c *model.CaseRecord) string { return c.MetaProcess.ReceiptDate },
			Set:         func(c *model.CaseRecord, v string) { c.MetaProcess.ReceiptDate = v },
		},
	})
}

// ValidInsuranceCode reports whether v looks like an art. 3 ust. 3 point
// reference.
func ValidInsuranceCode(v string) bool {
	return insuranceCodeRe.MatchString(lowerPL.String(v))
}
