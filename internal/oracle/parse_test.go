package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/schema"
)

func TestParseTurn_FlattensNestedSummary(t *testing.T) {
	reg := schema.AccidentCard()
	raw := `{
		"assistant_message": "Dziękuję, zanotowałem dane.",
		"missing_fields": [{"field": "injured.pesel", "reason": "brak numeru PESEL", "example": "90010112345"}],
		"follow_up_questions": ["Jaki jest PESEL poszkodowanego?"],
		"collected_data_summary": {
			"injured": {
				"first_name": "Jan",
				"last_name": "Kowalski",
				"is_student": false,
				"birth": {"date": "1990-01-01"}
			},
			"sobriety": {"was_intoxicated": false}
		}
	}`

	ext, err := parseTurn(raw, reg)
	require.NoError(t, err)

	assert.Equal(t, "Dziękuję, zanotowałem dane.", ext.AssistantMessage)
	require.Len(t, ext.Missing, 1)
	assert.Equal(t, "injured.pesel", ext.Missing[0].Field)
	require.Len(t, ext.FollowUps, 1)

	require.NotNil(t, ext.Fragment)
	assert.Equal(t, "Jan", ext.Fragment.Leaves["injured.first_name"])
	assert.Equal(t, "Kowalski", ext.Fragment.Leaves["injured.last_name"])
	assert.Equal(t, "1990-01-01", ext.Fragment.Leaves["injured.birth.date"])
	assert.Equal(t, "false", ext.Fragment.Leaves["injured.is_student"], "bools cross as text")
	assert.Equal(t, "false", ext.Fragment.Leaves["sobriety.was_intoxicated"])
}

func TestParseTurn_StripsCodeFences(t *testing.T) {
	reg := schema.AccidentCard()
	raw := "```json\n{\"assistant_message\": \"OK\", \"collected_data_summary\": null}\n```"

	ext, err := parseTurn(raw, reg)
	require.NoError(t, err)
	assert.Equal(t, "OK", ext.AssistantMessage)
	assert.Nil(t, ext.Fragment)
}

func TestParseTurn_ExtractsJSONFromProse(t *testing.T) {
	reg := schema.AccidentCard()
	raw := `Oto odpowiedź: {"assistant_message": "OK"} — koniec.`

	ext, err := parseTurn(raw, reg)
	require.NoError(t, err)
	assert.Equal(t, "OK", ext.AssistantMessage)
}

func TestParseTurn_MalformedJSON(t *testing.T) {
	reg := schema.AccidentCard()
	_, err := parseTurn(`{"assistant_message": `, reg)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestParseTurn_MissingAssistantMessage(t *testing.T) {
	reg := schema.AccidentCard()
	_, err := parseTurn(`{"collected_data_summary": {}}`, reg)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "assistant_message", vErr.Field)
}

func TestParseTurn_WitnessesList(t *testing.T) {
	reg := schema.AccidentCard()
	raw := `{
		"assistant_message": "OK",
		"collected_data_summary": {
			"witnesses": [
				{"first_name": "Piotr", "last_name": "Wiśniewski", "address": "Kraków"},
				{"first_name": "", "last_name": ""}
			]
		}
	}`

	ext, err := parseTurn(raw, reg)
	require.NoError(t, err)

	require.NotNil(t, ext.Fragment)
	assert.True(t, ext.Fragment.WitnessesConfirmed)
	require.Len(t, ext.Fragment.Witnesses, 1, "nameless entries dropped")
	assert.Equal(t, "Piotr", ext.Fragment.Witnesses[0].FirstName)
}

func TestParseTurn_EmptyWitnessListIsExplicit(t *testing.T) {
	reg := schema.AccidentCard()
	raw := `{
		"assistant_message": "OK",
		"collected_data_summary": {"witnesses": []}
	}`

	ext, err := parseTurn(raw, reg)
	require.NoError(t, err)
	assert.True(t, ext.Fragment.WitnessesConfirmed)
	assert.Empty(t, ext.Fragment.Witnesses)
}

func TestParseTurn_Attachments(t *testing.T) {
	reg := schema.AccidentCard()
	raw := `{
		"assistant_message": "OK",
		"collected_data_summary": {
			"meta_process": {"attachments": ["protokół BHP.pdf", " ", "zdjęcie miejsca.jpg"]}
		}
	}`

	ext, err := parseTurn(raw, reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"protokół BHP.pdf", "zdjęcie miejsca.jpg"}, ext.Fragment.Attachments)
}

func TestParseTurn_UnexpectedShape(t *testing.T) {
	reg := schema.AccidentCard()
	raw := `{
		"assistant_message": "OK",
		"collected_data_summary": {"injured": {"first_name": ["Jan"]}}
	}`

	_, err := parseTurn(raw, reg)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestParseFinalize(t *testing.T) {
	reg := schema.AccidentCard()
	raw := `{
		"collected_data_summary": {"injured": {"first_name": "Jan"}},
		"narrative": "Poszkodowany spadł z rusztowania podczas montażu.",
		"criteria_analysis": {
			"suddenness": {"met": true, "known": true, "justification": "zdarzenie chwilowe"},
			"external_cause": {"met": true, "known": true, "justification": "śliska nawierzchnia"},
			"work_connection": {"met": false, "known": false, "justification": ""}
		}
	}`

	fin, err := parseFinalize(raw, reg)
	require.NoError(t, err)

	assert.Equal(t, "Jan", fin.Fragment.Leaves["injured.first_name"])
	assert.Contains(t, fin.Narrative, "rusztowania")
	assert.True(t, fin.Criteria.Suddenness.Met)
	assert.False(t, fin.Criteria.WorkConnection.Known)
}

func TestParseFinalize_RequiresNarrativeAndSummary(t *testing.T) {
	reg := schema.AccidentCard()
	var vErr *model.ValidationError

	_, err := parseFinalize(`{"collected_data_summary": {}}`, reg)
	require.ErrorAs(t, err, &vErr)

	_, err = parseFinalize(`{"narrative": "opis"}`, reg)
	require.ErrorAs(t, err, &vErr)
}
