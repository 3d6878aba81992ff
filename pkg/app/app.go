// Package app orchestrates one invocation: analyze the branch, detect the
// ticket tag, collect the form, create the PR, and synchronize the
// related-PRs section across every open PR that shares the tag.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gitpr.dev/gitpr/pkg/config"
	prerrors "gitpr.dev/gitpr/pkg/errors"
	"gitpr.dev/gitpr/pkg/git"
	"gitpr.dev/gitpr/pkg/github"
	"gitpr.dev/gitpr/pkg/related"
	"gitpr.dev/gitpr/pkg/tags"
	"gitpr.dev/gitpr/pkg/template"
	"gitpr.dev/gitpr/pkg/ui"
)

// GitRepo is the slice of the git collaborator the orchestrator needs.
type GitRepo interface {
	CurrentBranch() (string, error)
	CommitMessages(branch string, limit int) ([]string, error)
	MergeBaseCandidates(branch string) ([]string, error)
	IsClean() (bool, error)
}

// dryRunFieldText stands in for editor content when --dry-run skips the editor.
const dryRunFieldText = "(dry run, field skipped)"

// App runs the PR creation and related-PR sync flow.
type App struct {
	cfg       *config.Config
	gh        github.Client
	repo      GitRepo
	prompter  ui.Prompter
	history   *tags.History
	extractor *tags.Extractor
	resolver  *related.Resolver

	out     io.Writer
	dryRun  bool
	verbose bool
	logger  *slog.Logger
}

// Options configures a run.
type Options struct {
	DryRun  bool
	Verbose bool
	Out     io.Writer // progress and warnings; nil defaults to io.Discard
}

// New wires the orchestrator. history may be empty but not nil.
func New(cfg *config.Config, gh github.Client, repo GitRepo, prompter ui.Prompter, history *tags.History, opts Options) (*App, error) {
	extractor, err := tags.NewExtractor(cfg.Tags.Pattern)
	if err != nil {
		return nil, err
	}

	resolver, err := related.NewResolver(gh, cfg.Related.MatchStrategy, cfg.Tags.Pattern)
	if err != nil {
		return nil, err
	}

	if opts.Out == nil {
		opts.Out = io.Discard
	}

	return &App{
		cfg:       cfg,
		gh:        gh,
		repo:      repo,
		prompter:  prompter,
		history:   history,
		extractor: extractor,
		resolver:  resolver,
		out:       opts.Out,
		dryRun:    opts.DryRun,
		verbose:   opts.Verbose,
		logger:    slog.Default(),
	}, nil
}

// RunCreate executes create mode end to end.
func (a *App) RunCreate(ctx context.Context) error {
	branch, err := a.repo.CurrentBranch()
	if err != nil {
		return err
	}
	if git.IsProtected(branch) {
		return prerrors.NewGitError("RunCreate",
			fmt.Sprintf("refusing to open a PR from protected branch %q, check out a feature branch", branch))
	}

	if clean, err := a.repo.IsClean(); err == nil && !clean {
		fmt.Fprintln(a.out, "warning: working tree has uncommitted changes, they will not be part of the PR")
	}

	messages, err := a.repo.CommitMessages(branch, 0)
	if err != nil {
		return err
	}

	tag, title, autoDetected, err := a.detectOrPromptTag(messages)
	if err != nil {
		return err
	}

	base, err := a.selectBaseBranch(ctx, branch)
	if err != nil {
		return err
	}

	values, err := a.collectFields()
	if err != nil {
		return err
	}

	reviewers, err := a.selectReviewers(ctx)
	if err != nil {
		return err
	}

	body, warnings, err := a.renderBody(tag, autoDetected, values)
	if err != nil {
		return err
	}
	a.printWarnings(warnings)

	pr, err := a.createPR(ctx, github.CreatePROptions{
		Title:      title,
		Body:       body,
		HeadBranch: branch,
		BaseBranch: base,
		Reviewers:  reviewers,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Published at: %s\n", pr.URL)

	a.updateRelatedAcrossSet(ctx, tag, pr)
	return nil
}

// RunUpdateOnly resolves the current branch's PR and replays only the
// related-PR synchronization. It is the repair path after a partial failure.
func (a *App) RunUpdateOnly(ctx context.Context) error {
	branch, err := a.repo.CurrentBranch()
	if err != nil {
		return err
	}

	pr, err := a.gh.GetPRForBranch(ctx, branch)
	if err != nil {
		return err
	}

	tag, ok := a.extractor.Extract(pr.Title)
	if !ok {
		tag, err = a.promptTag()
		if err != nil {
			return err
		}
	}

	a.updateRelatedAcrossSet(ctx, tag, pr)
	return nil
}

// detectOrPromptTag finds the ticket tag and the PR title.
//
// Auto-detect path: the newest tagged commit supplies both, and the detected
// tag is offered for confirmation (Enter keeps it, typing replaces it).
// Manual path: prompt for a title and a tag, composing "[TAG]: title" like a
// tagged commit would read.
func (a *App) detectOrPromptTag(messages []string) (tag, title string, autoDetected bool, err error) {
	if a.cfg.Jira.AutoDetect {
		if t, commit, ok := a.extractor.ExtractFromCommits(messages); ok {
			fmt.Fprintf(a.out, "> PR title: %s\n", commit)

			chosen, err := a.prompter.Input("Ticket tag", t, a.history.Suggestions(""))
			if err != nil {
				return "", "", false, err
			}
			if chosen == "" {
				chosen = t
			}
			fmt.Fprintf(a.out, "> PR tag: %s\n", chosen)
			if err := a.history.AddAndSave(chosen); err != nil {
				a.logDebug("failed to save tag history", "error", err)
			}
			// An overridden tag was typed by hand and is not assumed to be
			// the commit's Jira ticket.
			return chosen, commit, chosen == t, nil
		}
	}

	title, err = a.promptTitle()
	if err != nil {
		return "", "", false, err
	}

	tag, err = a.promptTag()
	if err != nil {
		return "", "", false, err
	}

	return tag, fmt.Sprintf("[%s]: %s", tag, title), false, nil
}

func (a *App) promptTitle() (string, error) {
	for {
		title, err := a.prompter.Input("PR title", "", nil)
		if err != nil {
			return "", err
		}
		if title != "" {
			return title, nil
		}
		fmt.Fprintln(a.out, "A title is required.")
	}
}

func (a *App) promptTag() (string, error) {
	for {
		tag, err := a.prompter.Input("Ticket tag", "", a.history.Suggestions(""))
		if err != nil {
			return "", err
		}
		if tag == "" {
			fmt.Fprintln(a.out, "A tag is required.")
			continue
		}
		if err := a.history.AddAndSave(tag); err != nil {
			a.logDebug("failed to save tag history", "error", err)
		}
		return tag, nil
	}
}

// selectBaseBranch ranks candidate bases and prompts only when the choice
// is ambiguous.
func (a *App) selectBaseBranch(ctx context.Context, branch string) (string, error) {
	candidates, err := a.repo.MergeBaseCandidates(branch)
	if err != nil {
		return "", err
	}

	switch len(candidates) {
	case 0:
		base, err := a.gh.GetDefaultBranch(ctx)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(a.out, "> PR base: %s\n", base)
		return base, nil
	case 1:
		fmt.Fprintf(a.out, "> PR base: %s\n", candidates[0])
		return candidates[0], nil
	default:
		return a.prompter.Select("Base branch", candidates)
	}
}

// collectFields walks the configured form fields in declaration order.
func (a *App) collectFields() (template.Values, error) {
	values := template.Values{}

	for _, field := range a.cfg.Template.Fields {
		prompt := field.Prompt
		if prompt == "" {
			prompt = field.Name
		}

		for {
			value, err := a.collectField(field, prompt)
			if err != nil {
				return nil, err
			}

			if value == "" {
				if field.Required {
					fmt.Fprintf(a.out, "%s is required.\n", field.Name)
					continue
				}
				// Optional and empty: no entry, so the template drops the line.
				break
			}

			values[field.Name] = value
			break
		}
	}

	return values, nil
}

func (a *App) collectField(field config.FormField, prompt string) (string, error) {
	switch field.Kind {
	case config.KindMultiLineEditor, "":
		if a.dryRun {
			return dryRunFieldText, nil
		}
		return a.prompter.Editor(prompt, field.Default)
	case config.KindSingleLine:
		return a.prompter.Input(prompt, field.Default, nil)
	default:
		return "", prerrors.NewConfigError("template.fields", "unknown field kind "+field.Kind)
	}
}

// selectReviewers offers the collaborator list, falling back to the
// configured defaults when the list is unavailable or nothing is picked.
func (a *App) selectReviewers(ctx context.Context) ([]string, error) {
	collaborators, err := a.gh.ListCollaborators(ctx)
	if err != nil || len(collaborators) == 0 {
		if err != nil {
			a.logDebug("collaborator list unavailable", "error", err)
		}
		return a.cfg.GitHub.DefaultReviewers, nil
	}

	selected, err := a.prompter.MultiSelect("Reviewers", collaborators)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return a.cfg.GitHub.DefaultReviewers, nil
	}
	return selected, nil
}

// renderBody renders the PR body with an empty related section. The real
// section is written after creation, once this PR's number is known.
func (a *App) renderBody(tag string, autoDetected bool, values template.Values) (string, []string, error) {
	tmpl := template.Template{
		Body:    a.cfg.Template.Body,
		Markers: a.cfg.Template.Markers,
	}

	// A tag typed by hand is not assumed to be a Jira ticket.
	trackingLine := ""
	if autoDetected {
		trackingLine = template.TrackingLine(a.cfg.Jira.URL, tag)
	}

	return template.Render(tmpl, a.cfg.Template.Fields, values, "", trackingLine)
}

// createPR delegates to the GitHub collaborator with retries on transient
// failures.
func (a *App) createPR(ctx context.Context, opts github.CreatePROptions) (*github.PullRequest, error) {
	var pr *github.PullRequest
	err := prerrors.Retry(ctx, prerrors.DefaultRetryConfig(), func() error {
		var createErr error
		pr, createErr = a.gh.CreatePR(ctx, opts)
		return createErr
	})
	if err != nil {
		return nil, err
	}
	return pr, nil
}

// updateRelatedAcrossSet pushes the per-PR related section to every open PR
// sharing the tag. Failures never roll back creation; they are reported as
// warnings and repaired by rerunning with --update-only.
func (a *App) updateRelatedAcrossSet(ctx context.Context, tag string, createdPR *github.PullRequest) {
	if tag == "" {
		return
	}

	set, err := a.resolveSet(ctx, tag, createdPR)
	if err != nil {
		fmt.Fprintf(a.out, "warning: could not resolve related PRs: %s\n", err)
		return
	}

	if len(set) == 0 {
		fmt.Fprintln(a.out, "> No related PRs found.")
		return
	}

	fmt.Fprintf(a.out, "> Found %d related PRs. Updating...\n", len(set))

	for _, ref := range set {
		if err := a.updateOne(ctx, set, ref); err != nil {
			fmt.Fprintf(a.out, "x Update %s failed: %s\n", ref.Path(), err)
			continue
		}
		fmt.Fprintf(a.out, "+ Updated %s\n", ref.Path())
	}
}

func (a *App) resolveSet(ctx context.Context, tag string, createdPR *github.PullRequest) (related.Set, error) {
	user := a.cfg.GitHub.User
	if user == "" {
		var err error
		user, err = a.gh.AuthenticatedUser(ctx)
		if err != nil {
			return nil, err
		}
	}

	set, err := a.resolver.Resolve(ctx, user, tag)
	if err != nil {
		return nil, err
	}

	// The search index may not include a PR created moments ago.
	if createdPR != nil && createdPR.Number > 0 {
		set = set.WithPR(createdPR)
	}

	return set, nil
}

func (a *App) updateOne(ctx context.Context, set related.Set, ref related.Ref) error {
	markers := a.cfg.Template.Markers

	if _, ok := template.ExtractRelatedSection(ref.Body, markers); !ok {
		return prerrors.NewMissingMarkerError(markers.Start)
	}

	view := set.ViewFor(ref.Repo, ref.Number)
	section := template.FormatRelatedSection(view)

	body, err := template.ReplaceRelatedSection(ref.Body, markers, section)
	if err != nil {
		return err
	}

	return prerrors.Retry(ctx, prerrors.DefaultRetryConfig(), func() error {
		return a.gh.EditPRBody(ctx, ref.Repo, ref.Number, body)
	})
}

func (a *App) printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(a.out, "warning: %s\n", w)
	}
}

func (a *App) logDebug(msg string, args ...any) {
	if a.verbose {
		a.logger.Debug(msg, args...)
	}
}
