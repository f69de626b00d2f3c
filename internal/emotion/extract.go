// Package emotion converts free-form provider output into the fixed
// analysis schema: extract.go peels markdown wrapping and validates the
// payload shape, normalize.go maps the open provider vocabulary onto the
// canonical emotion set.
package emotion

import (
	"encoding/json"
	"strings"

	"github.com/tonesense/tonesense/internal/utils"
)

// requiredFields must all be present at the top level of a provider payload.
// Each slot lists the accepted spellings; models drift between "emotion" and
// "primary_emotion" for the label field.
var requiredFields = [][]string{
	{"emotion", "primary_emotion"},
	{"confidence"},
	{"voice_features"},
	{"analysis"},
}

// RawResult is the provider payload after extraction, before normalization.
// Loose types on purpose: the provider is a free-text generator and field
// contents are validated downstream.
type RawResult struct {
	Emotion        string            `json:"emotion"`
	PrimaryEmotion string            `json:"primary_emotion"`
	Confidence     *float64          `json:"confidence"`
	VoiceFeatures  map[string]string `json:"voice_features"`
	Analysis       string            `json:"analysis"`
}

// Label returns the emotion label, preferring "emotion" over its
// "primary_emotion" alias when both are present.
func (r *RawResult) Label() string {
	if r.Emotion != "" {
		return r.Emotion
	}
	return r.PrimaryEmotion
}

// Extract strips the single recognized fence convention from a provider text
// response and parses the interior. Precedence: a ```json fence wins, then
// any ``` fence, then the verbatim text. Anything unparseable is a PARSE
// error; a parsed object missing a required field is a SCHEMA error. No
// other recovery is attempted.
func Extract(text string) (*RawResult, error) {
	const op = "emotion.Extract"

	body := stripFence(strings.TrimSpace(text))

	// Required-field check runs on the raw object so that a field present
	// with a null/odd value is a normalizer problem, not a schema failure.
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return nil, utils.E(utils.CodeParse, op, "failed to parse provider response", err)
	}
	for _, aliases := range requiredFields {
		present := false
		for _, f := range aliases {
			if _, ok := obj[f]; ok {
				present = true
				break
			}
		}
		if !present {
			return nil, utils.E(utils.CodeSchema, op, "provider response missing field: "+aliases[0], nil)
		}
	}

	var out RawResult
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, utils.E(utils.CodeParse, op, "provider response has malformed fields", err)
	}
	return &out, nil
}

// stripFence returns the interior of the first fenced block, preferring a
// block tagged json; text without a fence comes back verbatim.
func stripFence(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		// Drop a language tag on the opening line, if any.
		if nl := strings.Index(rest, "\n"); nl >= 0 && !strings.Contains(rest[:nl], "{") {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return text
}
