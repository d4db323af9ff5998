// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import "strings"

// ShouldExclude is the hard filter applied before any scoring. A paper is
// excluded when any of its topics appears in excludedTopics (exact,
// case-sensitive match on normalized tags) or when any excluded keyword
// occurs case-insensitively as a substring of the paper text. Empty
// exclusion lists never exclude, and an excluded paper is dropped from
// ranking output entirely rather than sorted last.
func ShouldExclude(paperTopics, excludedTopics, excludedKeywords []string, paperText string) bool {
	for _, topic := range paperTopics {
		for _, excluded := range excludedTopics {
			if topic == excluded {
				return true
			}
		}
	}
	if paperText != "" && len(excludedKeywords) > 0 {
		lower := strings.ToLower(paperText)
		for _, kw := range excludedKeywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				return true
			}
		}
	}
	return false
}
