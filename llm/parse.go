package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceRe      = regexp.MustCompile("(?s)^```[a-zA-Z0-9_]*\n(.*?)\n?```$")
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// StripCodeFences removes a surrounding markdown code fence from model
// output, if present. Inner fences are left alone.
func StripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// ExtractJSONObject pulls the first JSON object out of model output that may
// be wrapped in fences or surrounding prose.
func ExtractJSONObject(raw string) (string, error) {
	candidate := StripCodeFences(raw)
	if json.Valid([]byte(candidate)) {
		return candidate, nil
	}
	if m := jsonObjectRe.FindString(candidate); m != "" && json.Valid([]byte(m)) {
		return m, nil
	}
	return "", fmt.Errorf("no JSON object found in model output")
}

// Verdict is the validator's judgment of a generated script.
type Verdict struct {
	Valid       bool   `json:"valid"`
	Explanation string `json:"explanation"`
	Corrected   string `json:"corrected"`
}

// ParseVerdict decodes a validator response, tolerating markdown fences and
// surrounding prose.
func ParseVerdict(raw string) (*Verdict, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("error parsing validator verdict: %w", err)
	}
	var v Verdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return nil, fmt.Errorf("error parsing validator verdict: %w", err)
	}
	return &v, nil
}
