package utils

import (
	"regexp"
	"strings"
)

var (
	promptCharRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.,:;'"!?()[\]{}]`)
	spaceRe      = regexp.MustCompile(`\s+`)
	sceneNameRe  = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)
)

// SanitizePrompt strips control characters and collapses whitespace so the
// same prompt always yields the same specification text.
func SanitizePrompt(input string) string {
	sanitized := promptCharRe.ReplaceAllString(input, "")
	sanitized = spaceRe.ReplaceAllString(sanitized, " ")
	return strings.TrimSpace(sanitized)
}

// FormatSceneName turns a free-text prompt into a name safe for artifact
// directories and zip bundles.
func FormatSceneName(name string) string {
	formatted := sceneNameRe.ReplaceAllString(name, "-")
	formatted = strings.Trim(formatted, "-_")

	if len(formatted) > 40 {
		formatted = strings.Trim(formatted[:40], "-_")
	}
	if formatted == "" {
		formatted = "scene"
	}
	return strings.ToLower(formatted)
}

// TruncateString truncates a string to the specified length, adding an ellipsis if truncated
func TruncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
