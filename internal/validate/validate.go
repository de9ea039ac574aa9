package validate

import (
	"fmt"
	"strings"
)

// Text field length limits, single source of truth for backend and frontend.
const MaxCommentBodyLength = 5000

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

// CommentBody validates a comment against the allow-listed character set.
// It returns a human-readable message, or "" when the text is acceptable.
// The input is expected to be trimmed already.
func CommentBody(s string) string {
	if s == "" {
		return "comment must not be empty"
	}
	if msg := checkLen(s, MaxCommentBodyLength, "comment"); msg != "" {
		return msg
	}
	for _, r := range s {
		if !allowedCommentRune(r) {
			return fmt.Sprintf("comment contains a disallowed character %q", r)
		}
	}
	return ""
}

// Allowed set: letters, digits, space, newline and basic punctuation.
// Markup characters are rejected outright rather than escaped.
func allowedCommentRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return strings.ContainsRune(" .,!?'\"():;\n-", r)
}

// FieldLimits returns the max lengths served on /api/limits so the frontend
// can mirror them in client-side validation.
func FieldLimits() map[string]int {
	return map[string]int{
		"commentBody": MaxCommentBodyLength,
	}
}
