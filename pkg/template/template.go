// Package template renders pull request bodies from the configured
// template: placeholder substitution, the marker-delimited related-PRs
// section, and the optional Jira tracking line.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"gitpr.dev/gitpr/pkg/config"
	prerrors "gitpr.dev/gitpr/pkg/errors"
	"gitpr.dev/gitpr/pkg/related"
)

// Values holds collected field values keyed by field name. An optional field
// the user skipped has no key.
type Values map[string]string

// Template is a PR body template with its related-section markers.
type Template struct {
	Body    string
	Markers config.Markers
}

// placeholderRe matches {{name}} placeholders. Names follow the field name
// rules enforced by config validation.
var placeholderRe = regexp.MustCompile(`\{\{([A-Za-z0-9_-]+)\}\}`)

// Render produces the final PR body.
//
// The related section is spliced between the markers, which are preserved so
// later updates can find the section again. Placeholders are substituted from
// values; a line whose only non-whitespace content was an optional, absent
// placeholder is removed entirely. Placeholders that match no configured field
// are left verbatim and reported as warnings. A non-empty trackingLine is
// prepended followed by a blank line.
func Render(tmpl Template, fields []config.FormField, values Values, relatedSection, trackingLine string) (string, []string, error) {
	body, err := spliceRelatedSection(tmpl.Body, tmpl.Markers, relatedSection)
	if err != nil {
		return "", nil, err
	}

	known := make(map[string]config.FormField, len(fields))
	for _, f := range fields {
		known[f.Name] = f
	}

	var warnings []string
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		replaced, drop := renderLine(line, known, values, &warnings)
		if drop {
			continue
		}
		out = append(out, replaced)
	}
	body = strings.Join(out, "\n")

	if trackingLine != "" {
		body = trackingLine + "\n\n" + body
	}

	return body, warnings, nil
}

// renderLine substitutes placeholders on one line. drop is true when the
// line's only non-whitespace content was a single optional placeholder with
// no value.
func renderLine(line string, known map[string]config.FormField, values Values, warnings *[]string) (string, bool) {
	matches := placeholderRe.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return line, false
	}

	if len(matches) == 1 {
		name := matches[0][1]
		stripped := strings.TrimSpace(strings.Replace(line, matches[0][0], "", 1))
		if stripped == "" {
			field, ok := known[name]
			if ok {
				if _, has := values[name]; !has && !field.Required {
					return "", true
				}
			}
		}
	}

	replaced := placeholderRe.ReplaceAllStringFunc(line, func(ph string) string {
		name := placeholderRe.FindStringSubmatch(ph)[1]
		if v, ok := values[name]; ok {
			return v
		}
		if _, ok := known[name]; ok {
			// Known optional field without a value, inline with other text.
			return ""
		}
		*warnings = append(*warnings, "unresolved placeholder "+ph)
		return ph
	})

	return replaced, false
}

// spliceRelatedSection replaces the text between the markers with section,
// keeping the markers themselves.
func spliceRelatedSection(body string, markers config.Markers, section string) (string, error) {
	startIdx := strings.Index(body, markers.Start)
	if startIdx < 0 {
		return "", prerrors.NewMissingMarkerError(markers.Start)
	}
	endIdx := strings.Index(body, markers.End)
	if endIdx < 0 {
		return "", prerrors.NewMissingMarkerError(markers.End)
	}
	if endIdx < startIdx {
		return "", prerrors.NewTemplateError("end marker precedes start marker")
	}

	var b strings.Builder
	b.WriteString(body[:startIdx+len(markers.Start)])
	b.WriteString("\n")
	if section != "" {
		b.WriteString(section)
		b.WriteString("\n")
	}
	b.WriteString(body[endIdx:])
	return b.String(), nil
}

// ExtractRelatedSection returns the text between the markers in body, without
// the markers themselves. ok is false when either marker is missing, which
// means the body was not produced by this tool and must be left alone.
func ExtractRelatedSection(body string, markers config.Markers) (string, bool) {
	startIdx := strings.Index(body, markers.Start)
	if startIdx < 0 {
		return "", false
	}
	rest := body[startIdx+len(markers.Start):]
	endIdx := strings.Index(rest, markers.End)
	if endIdx < 0 {
		return "", false
	}
	return strings.Trim(rest[:endIdx], "\n"), true
}

// ReplaceRelatedSection swaps the marker interior of an existing PR body for
// section, used during bulk updates of other PRs in the set.
func ReplaceRelatedSection(body string, markers config.Markers, section string) (string, error) {
	return spliceRelatedSection(body, markers, section)
}

// FormatRelatedSection renders a related set as a markdown list. The entry
// for the PR being rendered is suffixed so readers can tell it apart.
func FormatRelatedSection(set related.Set) string {
	if len(set) == 0 {
		return ""
	}

	lines := make([]string, 0, len(set))
	for _, ref := range set {
		line := "- " + ref.Path()
		if ref.IsSelf {
			line += " - (this pr)"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// TrackingLine builds the Jira tracking line for a detected ticket tag.
// Empty when there is no Jira URL or no tag.
func TrackingLine(jiraURL, tag string) string {
	if jiraURL == "" || tag == "" {
		return ""
	}
	if !strings.HasSuffix(jiraURL, "/") {
		jiraURL += "/"
	}
	return fmt.Sprintf("Tracked by [%s](%s%s)", tag, jiraURL, tag)
}
