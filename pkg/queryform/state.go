package queryform

import (
	"fmt"
	"strings"
)

// Field names as they appear in the schema and in submitted records.
const (
	FieldQuery         = "query"
	FieldIndicQuery    = "indicQuery"
	FieldDisplayQuery  = "displayQuery"
	FieldInputScript   = "inputScript"
	FieldIsIndic       = "isIndic"
	FieldIsAllTexts    = "isAllTexts"
	FieldSelectedTexts = "selectedTexts"
)

// InputScript is the declared script family of a romanized query.
type InputScript string

const (
	ScriptDevanagari InputScript = "Devanagari"
	ScriptLatin      InputScript = "Latin"
	ScriptOther      InputScript = "Other"
)

// InputScripts lists the accepted scripts in display order.
func InputScripts() []InputScript {
	return []InputScript{ScriptDevanagari, ScriptLatin, ScriptOther}
}

// Valid reports whether s is one of the accepted scripts. The empty value is
// not valid; absence is modelled by leaving the field unset in the record.
func (s InputScript) Valid() bool {
	switch s {
	case ScriptDevanagari, ScriptLatin, ScriptOther:
		return true
	default:
		return false
	}
}

// State is the full set of form values. DisplayQuery is derived and is only
// ever written by the form's update entry points.
type State struct {
	Query         string      `json:"query,omitempty"`
	IndicQuery    string      `json:"indicQuery,omitempty"`
	DisplayQuery  string      `json:"displayQuery"`
	InputScript   InputScript `json:"inputScript,omitempty"`
	IsIndic       bool        `json:"isIndic"`
	IsAllTexts    bool        `json:"isAllTexts"`
	SelectedTexts []string    `json:"selectedTexts,omitempty"`
}

// DefaultState returns the values the form mounts with.
func DefaultState() State {
	return State{
		InputScript: ScriptDevanagari,
		IsIndic:     true,
		IsAllTexts:  true,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	if s.SelectedTexts != nil {
		out.SelectedTexts = append([]string(nil), s.SelectedTexts...)
	}
	return out
}

// Layout returns the layout policy for the state's flags.
func (s State) Layout() Layout {
	return LayoutFor(s.IsIndic, s.IsAllTexts)
}

// Values flattens the state into the field-name keyed map renderers consume.
// Values mirror the record: hidden selections are still reported so a later
// toggle can restore them.
func (s State) Values() map[string]any {
	values := map[string]any{
		FieldQuery:        s.Query,
		FieldIndicQuery:   s.IndicQuery,
		FieldDisplayQuery: s.DisplayQuery,
		FieldInputScript:  string(s.InputScript),
		FieldIsIndic:      s.IsIndic,
		FieldIsAllTexts:   s.IsAllTexts,
	}
	texts := make([]any, len(s.SelectedTexts))
	for i, id := range s.SelectedTexts {
		texts[i] = id
	}
	values[FieldSelectedTexts] = texts
	return values
}

// record is the submitted shape: the text selection only travels when the
// scope is restricted.
func (s State) record() State {
	out := s.Clone()
	if out.IsAllTexts {
		out.SelectedTexts = nil
	}
	return out
}

// normalizeSelection trims identifiers and drops blanks and repeats while
// keeping first-seen order.
func normalizeSelection(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		trimmed := strings.TrimSpace(id)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StateFromValues builds a state from a field-name keyed map such as a
// decoded JSON record. Missing fields keep their defaults and the display
// query is left for the form to derive.
func StateFromValues(values map[string]any) (State, error) {
	state := DefaultState()
	for key, value := range values {
		switch key {
		case FieldQuery, FieldIndicQuery, FieldInputScript:
			s, ok := value.(string)
			if !ok {
				return State{}, fmt.Errorf("queryform: %s expects a string, got %T", key, value)
			}
			switch key {
			case FieldQuery:
				state.Query = s
			case FieldIndicQuery:
				state.IndicQuery = s
			default:
				state.InputScript = InputScript(strings.TrimSpace(s))
			}
		case FieldIsIndic, FieldIsAllTexts:
			b, ok := value.(bool)
			if !ok {
				return State{}, fmt.Errorf("queryform: %s expects a bool, got %T", key, value)
			}
			if key == FieldIsIndic {
				state.IsIndic = b
			} else {
				state.IsAllTexts = b
			}
		case FieldSelectedTexts:
			ids, err := stringList(value)
			if err != nil {
				return State{}, fmt.Errorf("queryform: %s: %w", key, err)
			}
			state.SelectedTexts = normalizeSelection(ids)
		case FieldDisplayQuery:
			// derived
		default:
			return State{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}
	return state, nil
}
