package poll

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// newlineRunRegex matches one or more consecutive newlines
var newlineRunRegex = regexp.MustCompile(`\n+`)

// CountChars returns the character count as runes (not bytes).
// This correctly handles multi-byte UTF-8 characters.
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// NormalizeDescription normalizes a description:
// 1. Convert Windows/Mac line endings to \n
// 2. Collapse runs of newlines to a single newline
// 3. Trim leading/trailing whitespace
func NormalizeDescription(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = newlineRunRegex.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// DedupeOptions trims option strings, drops empty entries, and removes
// case-insensitive duplicates. The first occurrence wins and keeps its
// original casing; surviving entries are reindexed in order.
func DedupeOptions(options []string) []string {
	seen := make(map[string]bool, len(options))
	result := make([]string, 0, len(options))

	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		key := strings.ToLower(opt)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, opt)
	}

	return result
}

// FilterSelections reduces raw selections to a valid set for a poll with
// optionCount options: out-of-range indices are dropped, and for exclusive
// polls only the first valid selection survives. Otherwise duplicates are
// removed with order preserved.
func FilterSelections(selections []int, optionCount int, exclusive bool) []int {
	valid := make([]int, 0, len(selections))
	seen := make(map[int]bool, len(selections))

	for _, sel := range selections {
		if sel < 0 || sel >= optionCount {
			continue
		}
		if exclusive {
			return []int{sel}
		}
		if seen[sel] {
			continue
		}
		seen[sel] = true
		valid = append(valid, sel)
	}

	return valid
}
