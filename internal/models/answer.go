package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AnswerValue is a tagged union over the shapes a submitted or canonical quiz
// answer can take: free text or a set of choice ids. The shape is decided once
// by the question's declared type instead of carrying an untyped blob around.
type AnswerValue struct {
	Text    string
	Choices []string
	IsSet   bool
}

// TextAnswer wraps a free-text answer.
func TextAnswer(s string) AnswerValue {
	return AnswerValue{Text: s}
}

// ChoiceSetAnswer wraps a set of choice ids.
func ChoiceSetAnswer(ids ...string) AnswerValue {
	return AnswerValue{Choices: ids, IsSet: true}
}

// IsEmpty reports whether the value carries no answer at all.
func (v AnswerValue) IsEmpty() bool {
	if v.IsSet {
		return len(v.Choices) == 0
	}
	return strings.TrimSpace(v.Text) == ""
}

// References returns the value as a list of acceptable reference strings,
// used when grading free-text answers against one or more accepted answers.
func (v AnswerValue) References() []string {
	if v.IsSet {
		return v.Choices
	}
	return []string{v.Text}
}

// MarshalJSON encodes the value as either a JSON string or a JSON array.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.IsSet {
		if v.Choices == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.Choices)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON decodes a JSON string into Text and a JSON array into Choices.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ids []string
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return err
		}
		*v = AnswerValue{Choices: ids, IsSet: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*v = AnswerValue{Text: s}
	return nil
}
