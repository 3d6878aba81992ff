// Package related resolves the set of open pull requests that share a
// ticket tag, across every repository the user's credentials can see.
//
// The resolved set is rendered into each PR body between template markers,
// so all PRs belonging to one ticket cross-link each other.
package related

import (
	"context"
	"sort"
	"strings"

	"gitpr.dev/gitpr/pkg/config"
	prerrors "gitpr.dev/gitpr/pkg/errors"
	"gitpr.dev/gitpr/pkg/github"
	"gitpr.dev/gitpr/pkg/tags"
)

// Ref identifies one pull request in a related set.
type Ref struct {
	Repo   string // "owner/name"
	Number int
	URL    string
	Body   string // PR body at resolution time, used for the bulk rewrite
	IsSelf bool   // true when this entry is the PR whose body is being rendered
}

// Path returns the canonical resource path, e.g. "owner/repo/pull/42".
func (r Ref) Path() string {
	pr := github.PullRequest{Repo: r.Repo, Number: r.Number}
	return pr.Path()
}

// Set is an ordered collection of related PR refs.
// Order is deterministic: repo name lexicographic, then ascending PR number.
type Set []Ref

// ViewFor returns a copy of the set with IsSelf marked on the entry matching
// repo and number. The entry need not exist; a newly created PR appears in
// its own set only after it is added explicitly.
func (s Set) ViewFor(repo string, number int) Set {
	out := make(Set, len(s))
	for i, ref := range s {
		ref.IsSelf = ref.Repo == repo && ref.Number == number
		out[i] = ref
	}
	return out
}

// Contains reports whether the set already has an entry for repo and number.
func (s Set) Contains(repo string, number int) bool {
	for _, ref := range s {
		if ref.Repo == repo && ref.Number == number {
			return true
		}
	}
	return false
}

// WithPR returns the set with the given PR included, keeping order.
func (s Set) WithPR(pr *github.PullRequest) Set {
	if s.Contains(pr.Repo, pr.Number) {
		return s
	}
	out := append(Set{}, s...)
	out = append(out, Ref{Repo: pr.Repo, Number: pr.Number, URL: pr.URL, Body: pr.Body})
	out.sortRefs()
	return out
}

func (s Set) sortRefs() {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Repo != s[j].Repo {
			return s[i].Repo < s[j].Repo
		}
		return s[i].Number < s[j].Number
	})
}

// Lister is the subset of the GitHub client the resolver needs.
type Lister interface {
	ListMyPRs(ctx context.Context, user string) ([]github.PullRequest, error)
}

// Resolver finds the user's open PRs that belong to a ticket tag.
type Resolver struct {
	lister    Lister
	strategy  string
	extractor *tags.Extractor
}

// NewResolver creates a resolver using the given match strategy.
//
// With the substring strategy a PR belongs to the set when its title or body
// contains the tag verbatim. With the tag strategy the PR title's own
// extracted tag must equal the target tag, which avoids false positives from
// tags embedded in prose.
func NewResolver(lister Lister, strategy, pattern string) (*Resolver, error) {
	switch strategy {
	case "":
		strategy = config.MatchSubstring
	case config.MatchSubstring, config.MatchTag:
	default:
		return nil, prerrors.NewConfigError("related.match_strategy",
			"unknown strategy "+strategy+", expected substring or tag")
	}

	extractor, err := tags.NewExtractor(pattern)
	if err != nil {
		return nil, err
	}

	return &Resolver{
		lister:    lister,
		strategy:  strategy,
		extractor: extractor,
	}, nil
}

// Resolve returns the ordered set of open PRs authored by user that match
// tag. An empty tag resolves to an empty set without calling the API.
func (r *Resolver) Resolve(ctx context.Context, user, tag string) (Set, error) {
	if tag == "" {
		return Set{}, nil
	}

	prs, err := r.lister.ListMyPRs(ctx, user)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var set Set
	for i := range prs {
		pr := &prs[i]
		if !pr.IsOpen() || !r.matches(pr, tag) {
			continue
		}
		key := pr.Path()
		if seen[key] {
			continue
		}
		seen[key] = true
		set = append(set, Ref{Repo: pr.Repo, Number: pr.Number, URL: pr.URL, Body: pr.Body})
	}

	set.sortRefs()
	return set, nil
}

func (r *Resolver) matches(pr *github.PullRequest, tag string) bool {
	if r.strategy == config.MatchTag {
		got, ok := r.extractor.Extract(pr.Title)
		return ok && got == tag
	}
	return strings.Contains(pr.Title, tag) || strings.Contains(pr.Body, tag)
}
