package model

// IdentityDocument holds the kind, series and number of an identity document.
type IdentityDocument struct {
	Kind   string `json:"kind"`
	Series string `json:"series"`
	Number string `json:"number"`
}

// Employer is section I of the accident card (płatnik składek).
type Employer struct {
	Name    string           `json:"employer_name"`
	Address string           `json:"hq_address"`
	NIP     string           `json:"nip"`
	REGON   string           `json:"regon"`
	PESEL   string           `json:"pesel"`
	ID      IdentityDocument `json:"id"`
}

// Birth holds the injured person's birth date and place.
type Birth struct {
	Date  string `json:"date"`
	Place string `json:"place"`
}

// InsuranceTitle is the art. 3 ust. 3 insurance title (pkt II.5).
type InsuranceTitle struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Injured is section II of the accident card (poszkodowany).
type Injured struct {
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	PESEL          string           `json:"pesel"`
	ID             IdentityDocument `json:"id"`
	Birth          Birth            `json:"birth"`
	Address        string           `json:"address"`
	InsuranceTitle InsuranceTitle   `json:"insurance_title"`
	IsStudent      string           `json:"is_student"`
}

// LegalQualification records whether the event qualifies as a work accident
// and on what statutory basis (pkt III.4).
type LegalQualification struct {
	IsAccidentAtWork string `json:"is_accident_at_work"`
	LegalBasis       string `json:"legal_basis"`
	Justification    string `json:"justification"`
}

// Accident is section III of the accident card.
type Accident struct {
	Date               string             `json:"date"`
	ReporterFirstName  string             `json:"reporters_first_name"`
	ReporterLastName   string             `json:"reporters_last_name"`
	Description        string             `json:"description"`
	Cause              string             `json:"cause"`
	LegalQualification LegalQualification `json:"legal_qualification"`
}

// Witness is one entry of the witness list (pkt III.3).
type Witness struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
}

// AccidentCauses records the negligence statement (pkt III.5).
type AccidentCauses struct {
	NegligenceStatement string `json:"negligence_statement"`
}

// Sobriety records intoxication findings (pkt III.6). WasIntoxicated is a
// tri-state text leaf: "", "true" or "false" — empty means not yet stated.
type Sobriety struct {
	WasIntoxicated      string `json:"was_intoxicated"`
	EvidenceDescription string `json:"evidence_description"`
}

// Acknowledgment records who read the finished card and when (pkt IV.1).
type Acknowledgment struct {
	PersonName string `json:"person_name"`
	Date       string `json:"date"`
}

// Preparation records who prepared the card and when (pkt IV.2).
type Preparation struct {
	Date         string `json:"date"`
	EntityName   string `json:"entity_name"`
	PreparerName string `json:"preparer_name"`
}

// MetaProcess is section IV of the accident card.
type MetaProcess struct {
	Acknowledgment Acknowledgment `json:"acknowledgment"`
	Preparation    Preparation    `json:"preparation"`
	DelayReason    string         `json:"delay_reason"`
	ReceiptDate    string         `json:"receipt_date"`
	Attachments    []string       `json:"attachments"`
}

// CaseRecord is the canonical structured accident report assembled over a
// conversation. Scalar leaves are addressed by dotted path (see the schema
// registry); boolean leaves are carried as "true"/"false" text so an unset
// leaf is distinguishable from an explicit answer.
type CaseRecord struct {
	Employer       Employer       `json:"employer"`
	Injured        Injured        `json:"injured"`
	Accident       Accident       `json:"accident"`
	Witnesses      []Witness      `json:"witnesses"`
	WitnessesKnown bool           `json:"witnesses_known"`
	AccidentCauses AccidentCauses `json:"accident_causes"`
	Sobriety       Sobriety       `json:"sobriety"`
	MetaProcess    MetaProcess    `json:"meta_process"`
}

// Clone returns a deep copy of the record. The slot filler merges into a
// clone so a failed turn never leaves a half-applied draft behind.
func (c *CaseRecord) Clone() *CaseRecord {
	out := *c
	if c.Witnesses != nil {
		out.Witnesses = make([]Witness, len(c.Witnesses))
		copy(out.Witnesses, c.Witnesses)
	}
	if c.MetaProcess.Attachments != nil {
		out.MetaProcess.Attachments = make([]string, len(c.MetaProcess.Attachments))
		copy(out.MetaProcess.Attachments, c.MetaProcess.Attachments)
	}
	return &out
}
