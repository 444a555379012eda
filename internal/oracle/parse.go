package oracle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/schema"
)

// turnReply is the wire shape of a conversational oracle reply.
type turnReply struct {
	AssistantMessage  string               `json:"assistant_message"`
	MissingFields     []model.MissingField `json:"missing_fields"`
	FollowUpQuestions []string             `json:"follow_up_questions"`
	CollectedData     json.RawMessage      `json:"collected_data_summary"`
}

// finalizeReply is the wire shape of an adjudication-time oracle reply.
type finalizeReply struct {
	CollectedData json.RawMessage        `json:"collected_data_summary"`
	Narrative     string                 `json:"narrative"`
	Criteria      model.CriteriaFindings `json:"criteria_analysis"`
}

// parseTurn validates a raw oracle reply and converts it into a
// TurnExtraction. Any structural mismatch is a ValidationError.
func parseTurn(raw string, reg *schema.Registry) (*model.TurnExtraction, error) {
	body := stripFences(raw)

	var reply turnReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return nil, &model.ValidationError{Reason: fmt.Sprintf("malformed oracle reply: %v", err)}
	}
	if strings.TrimSpace(reply.AssistantMessage) == "" {
		return nil, &model.ValidationError{Field: "assistant_message", Reason: "missing"}
	}

	frag, err := parseFragment(reply.CollectedData, reg)
	if err != nil {
		return nil, err
	}

	return &model.TurnExtraction{
		AssistantMessage: reply.AssistantMessage,
		Missing:          reply.MissingFields,
		FollowUps:        reply.FollowUpQuestions,
		Fragment:         frag,
	}, nil
}

// parseFinalize validates a raw adjudication reply.
func parseFinalize(raw string, reg *schema.Registry) (*model.AdjudicationInput, error) {
	body := stripFences(raw)

	var reply finalizeReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return nil, &model.ValidationError{Reason: fmt.Sprintf("malformed oracle reply: %v", err)}
	}
	if strings.TrimSpace(reply.Narrative) == "" {
		return nil, &model.ValidationError{Field: "narrative", Reason: "missing"}
	}

	frag, err := parseFragment(reply.CollectedData, reg)
	if err != nil {
		return nil, err
	}
	if frag == nil {
		return nil, &model.ValidationError{Field: "collected_data_summary", Reason: "missing"}
	}

	return &model.AdjudicationInput{
		Fragment:  frag,
		Narrative: reply.Narrative,
		Criteria:  reply.Criteria,
	}, nil
}

// parseFragment flattens the nested collected_data_summary object into leaf
// paths. The witness list and the attachments list are the only non-scalar
// sections; everything else must be a scalar on a registered path.
func parseFragment(raw json.RawMessage, reg *schema.Registry) (*model.Fragment, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var nested map[string]any
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, &model.ValidationError{Field: "collected_data_summary", Reason: fmt.Sprintf("not an object: %v", err)}
	}

	frag := &model.Fragment{Leaves: make(map[string]string)}

	if w, ok := nested["witnesses"]; ok {
		list, err := parseWitnesses(w)
		if err != nil {
			return nil, err
		}
		frag.Witnesses = list
		frag.WitnessesConfirmed = true
		delete(nested, "witnesses")
	}

	if err := flatten("", nested, frag, reg); err != nil {
		return nil, err
	}
	return frag, nil
}

func flatten(prefix string, node map[string]any, frag *model.Fragment, reg *schema.Registry) error {
	for key, val := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if path == "meta_process.attachments" {
			items, ok := val.([]any)
			if !ok && val != nil {
				return &model.ValidationError{Field: path, Reason: "expected a list"}
			}
			for _, it := range items {
				if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
					frag.Attachments = append(frag.Attachments, s)
				}
			}
			continue
		}

		switch v := val.(type) {
		case nil:
			continue
		case map[string]any:
			if err := flatten(path, v, frag, reg); err != nil {
				return err
			}
		case string:
			frag.Leaves[path] = v
		case bool:
			frag.Leaves[path] = strconv.FormatBool(v)
		case float64:
			frag.Leaves[path] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return &model.ValidationError{Field: path, Reason: "unexpected value shape"}
		}
	}
	return nil
}

func parseWitnesses(v any) ([]model.Witness, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, &model.ValidationError{Field: "witnesses", Reason: "expected a list"}
	}
	out := make([]model.Witness, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, &model.ValidationError{Field: "witnesses", Reason: "entry is not an object"}
		}
		w := model.Witness{
			FirstName: str(m["first_name"]),
			LastName:  str(m["last_name"]),
			Address:   str(m["address"]),
		}
		if w.FirstName == "" && w.LastName == "" {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func str(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// stripFences removes a markdown code fence around the JSON body, which
// models add despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	// Some replies prepend prose; fall back to the outermost braces.
	if !strings.HasPrefix(strings.TrimSpace(s), "{") {
		if start := strings.Index(s, "{"); start >= 0 {
			if end := strings.LastIndex(s, "}"); end > start {
				s = s[start : end+1]
			}
		}
	}
	return strings.TrimSpace(s)
}
