package chat

import (
	"regexp"
	"strings"
)

var focusMarker = regexp.MustCompile(`\{\{FOCUS: (.*?)\}\}`)

// ParseResponse strips the first {{FOCUS: label}} marker out of raw model
// output. ok reports whether a marker was found.
func ParseResponse(raw string) (display, focus string, ok bool) {
	loc := focusMarker.FindStringSubmatchIndex(raw)
	if loc == nil {
		return strings.TrimSpace(raw), "", false
	}
	focus = strings.TrimSpace(raw[loc[2]:loc[3]])
	display = strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	return display, focus, true
}

// FocusTag normalizes a focus label for display: "Linear algebra" -> "LINEAR_ALGEBRA".
func FocusTag(label string) string {
	return strings.ReplaceAll(strings.ToUpper(label), " ", "_")
}

const (
	FocusInitialization = "INITIALIZATION"
	FocusResumed        = "RESUMED"
)
