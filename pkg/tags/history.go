package tags

import (
	"os"
	"path/filepath"
	"strings"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// MaxHistory caps how many tags the history file retains.
const MaxHistory = 10

// History is the persisted list of previously used tags, most recently used
// first, one tag per line. It backs the autocomplete suggestions offered when
// no tag could be detected from the branch.
type History struct {
	path string
	tags []string
}

// LoadHistory reads the history file at path. A missing file yields an empty
// history bound to that path.
func LoadHistory(path string) (*History, error) {
	h := &History{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return nil, prerrors.Wrapf(err, "reading tag history %s", path)
	}

	for _, line := range strings.Split(string(data), "\n") {
		tag := strings.TrimSpace(line)
		if tag != "" {
			h.tags = append(h.tags, tag)
		}
	}

	return h, nil
}

// Tags returns the stored tags, most recently used first.
func (h *History) Tags() []string {
	out := make([]string, len(h.tags))
	copy(out, h.tags)
	return out
}

// Empty reports whether no tags are stored.
func (h *History) Empty() bool {
	return len(h.tags) == 0
}

// Add puts tag at the front of the list, removing any earlier occurrence and
// trimming the list to MaxHistory entries.
func (h *History) Add(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}

	kept := h.tags[:0]
	for _, t := range h.tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	h.tags = append([]string{tag}, kept...)

	if len(h.tags) > MaxHistory {
		h.tags = h.tags[:MaxHistory]
	}
}

// Save writes the history back to its file.
func (h *History) Save() error {
	var b strings.Builder
	for _, tag := range h.tags {
		b.WriteString(tag)
		b.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return prerrors.Wrapf(err, "creating directory for tag history %s", h.path)
	}
	if err := os.WriteFile(h.path, []byte(b.String()), 0o644); err != nil {
		return prerrors.Wrapf(err, "writing tag history %s", h.path)
	}
	return nil
}

// AddAndSave adds tag and immediately persists the history.
func (h *History) AddAndSave(tag string) error {
	h.Add(tag)
	return h.Save()
}

// Suggestions returns stored tags starting with prefix, most recent first.
// An empty prefix returns everything.
func (h *History) Suggestions(prefix string) []string {
	if prefix == "" {
		return h.Tags()
	}

	var out []string
	for _, t := range h.tags {
		if strings.HasPrefix(t, prefix) {
			out = append(out, t)
		}
	}
	return out
}
