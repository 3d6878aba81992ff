package tags

import "testing"

func TestExtract(t *testing.T) {
	e, err := NewExtractor("")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"bracketed", "[TRACK-123]: Add feature", "TRACK-123", true},
		{"bare", "TRACK-7 fix bug", "TRACK-7", true},
		{"embedded", "fix bug for ABC-123 and more", "ABC-123", true},
		{"first match wins", "[AAA-1] and [BBB-2]", "AAA-1", true},
		{"digits in project", "[A1B2-99]: ok", "A1B2-99", true},
		{"no match", "No tag here", "", false},
		{"lowercase not a tag", "track-123 something", "", false},
		{"dash without digits", "ABC- nothing", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := e.Extract(tt.text)
			if found != tt.found || got != tt.want {
				t.Errorf("Extract(%q) = (%q, %v), want (%q, %v)", tt.text, got, found, tt.want, tt.found)
			}
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	e, _ := NewExtractor("")
	const text = "noise [TRACK-123] noise [TRACK-456]"

	first, _ := e.Extract(text)
	for i := 0; i < 100; i++ {
		got, _ := e.Extract(text)
		if got != first {
			t.Fatalf("Extract() unstable: got %q then %q", first, got)
		}
	}
}

func TestExtractCustomPattern(t *testing.T) {
	e, err := NewExtractor(`#[0-9]+`)
	if err != nil {
		t.Fatal(err)
	}

	got, found := e.Extract("fixes #42 for real")
	if !found || got != "#42" {
		t.Errorf("Extract() = (%q, %v), want (#42, true)", got, found)
	}
}

func TestNewExtractorInvalidPattern(t *testing.T) {
	if _, err := NewExtractor("["); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestExtractFromCommits(t *testing.T) {
	e, _ := NewExtractor("")

	commits := []string{
		"no tag here",
		"[TRACK-123]: Add feature",
		"[TRACK-456]: Another",
	}

	tag, message, ok := e.ExtractFromCommits(commits)
	if !ok {
		t.Fatal("expected a tag")
	}
	if tag != "TRACK-123" || message != "[TRACK-123]: Add feature" {
		t.Errorf("got (%q, %q)", tag, message)
	}

	if _, _, ok := e.ExtractFromCommits([]string{"nothing", "at all"}); ok {
		t.Error("expected no tag")
	}
}
