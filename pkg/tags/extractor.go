// Package tags extracts ticket tags from text and persists the history of
// previously used tags for prompt suggestions.
//
// A tag is the identifier joining a series of pull requests, typically a Jira
// ticket key such as TRACK-123. Commit messages conventionally carry it in
// brackets ("[TRACK-123]: fix pagination").
package tags

import (
	"regexp"
	"strings"
)

// DefaultPattern matches an uppercase ticket key, optionally bracket-wrapped.
var DefaultPattern = regexp.MustCompile(`\[?[A-Z][A-Z0-9]*-[0-9]+\]?`)

// Extractor finds tags in free-form text. The zero value is not usable;
// construct with NewExtractor.
type Extractor struct {
	pattern *regexp.Regexp
}

// NewExtractor builds an Extractor from a pattern string. An empty pattern
// selects the default.
func NewExtractor(pattern string) (*Extractor, error) {
	if pattern == "" {
		return &Extractor{pattern: DefaultPattern}, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Extractor{pattern: re}, nil
}

// Extract returns the first tag found in text with any wrapping brackets
// stripped, and whether a tag was found. Pure and deterministic: identical
// input always yields identical output.
func (e *Extractor) Extract(text string) (string, bool) {
	match := e.pattern.FindString(text)
	if match == "" {
		return "", false
	}

	tag := strings.TrimSuffix(strings.TrimPrefix(match, "["), "]")
	if tag == "" {
		return "", false
	}
	return tag, true
}

// ExtractFromCommits scans commit messages in order and returns the first tag
// found along with the message that carried it. The caller supplies messages
// most-recent-first, so the newest tagged commit wins.
func (e *Extractor) ExtractFromCommits(messages []string) (tag, message string, ok bool) {
	for _, m := range messages {
		if t, found := e.Extract(m); found {
			return t, m, true
		}
	}
	return "", "", false
}
