package diag

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultMaxFieldChars bounds how much of a field value is printed.
	DefaultMaxFieldChars = 200
	// DefaultMaxItemChars bounds the preview of a sequence's first item.
	DefaultMaxItemChars = 100
)

// metadataPrefix marks service-owned fields (e.g. @search.score) that are
// not part of the document schema.
const metadataPrefix = "@"

// IsMetadataField reports whether a field name is service metadata.
func IsMetadataField(name string) bool {
	return strings.HasPrefix(name, metadataPrefix)
}

// MatchesFieldPatterns reports whether a field name matches any of the
// given glob patterns. An empty pattern list matches everything.
func MatchesFieldPatterns(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// FormatFieldValue renders one document field for display:
// long strings are cut to maxField chars with an ellipsis, non-empty
// sequences become "[N items] <first item preview>...", and anything
// else is stringified and silently bounded at maxField chars.
func FormatFieldValue(value any, maxField, maxItem int) string {
	if maxField <= 0 {
		maxField = DefaultMaxFieldChars
	}
	if maxItem <= 0 {
		maxItem = DefaultMaxItemChars
	}
	switch v := value.(type) {
	case string:
		if runeLen(v) > maxField {
			return truncate(v, maxField) + "..."
		}
		return v
	case []any:
		if len(v) > 0 {
			first := fmt.Sprintf("%v", v[0])
			return fmt.Sprintf("[%d items] %s...", len(v), truncate(first, maxItem))
		}
		return truncate(fmt.Sprintf("%v", v), maxField)
	default:
		return truncate(fmt.Sprintf("%v", value), maxField)
	}
}

// truncate cuts s to at most max characters. Counts runes so multi-byte
// text is not split mid-character.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func runeLen(s string) int {
	return len([]rune(s))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
