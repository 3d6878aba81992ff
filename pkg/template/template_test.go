package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitpr.dev/gitpr/pkg/config"
	prerrors "gitpr.dev/gitpr/pkg/errors"
	"gitpr.dev/gitpr/pkg/related"
)

func testMarkers() config.Markers {
	return config.Markers{
		Start: config.DefaultRelatedStart,
		End:   config.DefaultRelatedEnd,
	}
}

func testTemplate() Template {
	return Template{
		Body:    config.DefaultTemplateBody,
		Markers: testMarkers(),
	}
}

func testFields() []config.FormField {
	return []config.FormField{
		{Name: "description", Kind: config.KindMultiLineEditor, Required: true},
		{Name: "implementation", Kind: config.KindMultiLineEditor, Required: false},
	}
}

func TestRenderSubstitutesFields(t *testing.T) {
	body, warnings, err := Render(testTemplate(), testFields(), Values{
		"description":    "Adds retry support.",
		"implementation": "Wraps calls in a backoff loop.",
	}, "- octo/widgets/pull/12 - (this pr)", "")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Contains(t, body, "Adds retry support.")
	assert.Contains(t, body, "Wraps calls in a backoff loop.")
	assert.Contains(t, body, "- octo/widgets/pull/12 - (this pr)")
	assert.Contains(t, body, config.DefaultRelatedStart)
	assert.Contains(t, body, config.DefaultRelatedEnd)
	assert.NotContains(t, body, "{{")
}

func TestRenderRemovesOptionalAbsentLine(t *testing.T) {
	body, warnings, err := Render(testTemplate(), testFields(), Values{
		"description": "Adds retry support.",
	}, "", "")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.NotContains(t, body, "{{implementation}}")
	for _, line := range strings.Split(body, "\n") {
		assert.NotEqual(t, "{{implementation}}", strings.TrimSpace(line))
	}
	// The section heading above it survives.
	assert.Contains(t, body, "## Considerations and implementation")
}

func TestRenderUnresolvedPlaceholderWarns(t *testing.T) {
	tmpl := Template{
		Body:    "intro {{mystery}} outro\n" + config.DefaultRelatedStart + "\n" + config.DefaultRelatedEnd,
		Markers: testMarkers(),
	}

	body, warnings, err := Render(tmpl, testFields(), Values{}, "", "")
	require.NoError(t, err)

	assert.Contains(t, body, "{{mystery}}")
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "{{mystery}}")
}

func TestRenderMissingMarker(t *testing.T) {
	tmpl := Template{
		Body:    "no markers here {{description}}",
		Markers: testMarkers(),
	}

	_, _, err := Render(tmpl, testFields(), Values{"description": "x"}, "", "")
	require.Error(t, err)
	assert.True(t, prerrors.IsMissingMarker(err))
}

func TestRenderTrackingLine(t *testing.T) {
	body, _, err := Render(testTemplate(), testFields(), Values{
		"description": "Adds retry support.",
	}, "", "Tracked by [TRACK-42](https://jira.example.com/browse/TRACK-42)")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(body, "Tracked by [TRACK-42]"))
	// Blank line separates the tracking line from the body.
	assert.Contains(t, body, "TRACK-42)\n\n")
}

func TestExtractRelatedSection(t *testing.T) {
	markers := testMarkers()
	body := "header\n" + markers.Start + "\n- octo/widgets/pull/12\n" + markers.End + "\nfooter"

	section, ok := ExtractRelatedSection(body, markers)
	require.True(t, ok)
	assert.Equal(t, "- octo/widgets/pull/12", section)
}

func TestExtractRelatedSectionMissingMarkers(t *testing.T) {
	markers := testMarkers()

	_, ok := ExtractRelatedSection("plain body, no markers", markers)
	assert.False(t, ok)

	_, ok = ExtractRelatedSection("only start "+markers.Start, markers)
	assert.False(t, ok)
}

func TestReplaceRelatedSectionRoundTrip(t *testing.T) {
	markers := testMarkers()
	body := "header\n" + markers.Start + "\n- old/entry/pull/1\n" + markers.End + "\nfooter"

	section := "- octo/widgets/pull/12 - (this pr)\n- octo/gadgets/pull/3"
	updated, err := ReplaceRelatedSection(body, markers, section)
	require.NoError(t, err)

	got, ok := ExtractRelatedSection(updated, markers)
	require.True(t, ok)
	assert.Equal(t, section, got)

	// Replacing with the extracted section is byte-stable.
	again, err := ReplaceRelatedSection(updated, markers, got)
	require.NoError(t, err)
	assert.Equal(t, updated, again)
}

func TestFormatRelatedSection(t *testing.T) {
	set := related.Set{
		{Repo: "octo/gadgets", Number: 3},
		{Repo: "octo/widgets", Number: 12, IsSelf: true},
	}

	got := FormatRelatedSection(set)
	want := "- octo/gadgets/pull/3\n- octo/widgets/pull/12 - (this pr)"
	assert.Equal(t, want, got)
}

func TestFormatRelatedSectionEmpty(t *testing.T) {
	assert.Equal(t, "", FormatRelatedSection(nil))
}

func TestTrackingLine(t *testing.T) {
	tests := []struct {
		name    string
		jiraURL string
		tag     string
		want    string
	}{
		{"both set", "https://jira.example.com/browse", "TRACK-42",
			"Tracked by [TRACK-42](https://jira.example.com/browse/TRACK-42)"},
		{"trailing slash", "https://jira.example.com/browse/", "TRACK-42",
			"Tracked by [TRACK-42](https://jira.example.com/browse/TRACK-42)"},
		{"no url", "", "TRACK-42", ""},
		{"no tag", "https://jira.example.com/browse", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TrackingLine(tt.jiraURL, tt.tag))
		})
	}
}
