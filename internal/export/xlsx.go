// Package export writes recorded cases to spreadsheet workbooks for the
// claims office.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/schema"
)

var caseHeader = []string{
	"id", "status", "accident_type", "accident_severity", "verdict",
	"confidence", "flaws", "created_at",
}

// WriteCasesXLSX writes one workbook with a summary sheet and a full
// field-by-field sheet, in card order.
func WriteCasesXLSX(path string, cases []model.Case, reg *schema.Registry) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Sprawy")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addRow(summary, caseHeader)
	for _, c := range cases {
		addRow(summary, summaryRow(c))
	}

	fields, err := f.AddSheet("Pola")
	if err != nil {
		return eris.Wrap(err, "export: add fields sheet")
	}
	addRow(fields, append([]string{"id"}, reg.Paths()...))
	for _, c := range cases {
		row := []string{c.ID}
		for _, p := range reg.Paths() {
			v, _ := reg.Get(c.Record, p)
			row = append(row, v)
		}
		addRow(fields, row)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func summaryRow(c model.Case) []string {
	verdict, confidence, flaws := "", "", ""
	if c.Decision != nil {
		verdict = string(c.Decision.Verdict)
		confidence = formatConfidence(c.Decision.Confidence)
		flaws = joinFlaws(c.Decision.Flaws)
	}
	return []string{
		c.ID, string(c.Status), string(c.Type), string(c.Severity),
		verdict, confidence, flaws,
		c.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().Value = v
	}
}
