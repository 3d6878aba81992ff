// Package config loads and validates the git-pr configuration.
//
// Configuration comes from a YAML file (default ~/.config/git-pr/config.yaml,
// overridable with the GIT_PR_CONFIG environment variable or --config flag)
// plus environment variables. A missing config file is not an error; defaults
// apply. The loaded Config is immutable for the rest of the run.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	prerrors "gitpr.dev/gitpr/pkg/errors"
)

// Field kinds for template form fields.
const (
	KindSingleLine      = "single-line"
	KindMultiLineEditor = "multi-line-editor"
)

// Matching strategies for the related-PR resolver.
const (
	MatchSubstring = "substring"
	MatchTag       = "tag"
)

// DefaultTagPattern matches ticket identifiers like TRACK-123, optionally
// wrapped in brackets as they appear in commit messages ("[TRACK-123]: fix").
const DefaultTagPattern = `\[?[A-Z][A-Z0-9]*-[0-9]+\]?`

// Default related-PR section markers.
const (
	DefaultRelatedStart = "<!-- RELATED_PR -->"
	DefaultRelatedEnd   = "<!-- /RELATED_PR -->"
)

// DefaultTemplateBody is the PR body template used when the config file does
// not provide one. Placeholders refer to the default form fields below.
const DefaultTemplateBody = `## What is this PR doing

{{description}}

## Considerations and implementation

{{implementation}}

## Related PRs

` + DefaultRelatedStart + `
` + DefaultRelatedEnd + `
`

// Config represents the application configuration.
type Config struct {
	Jira     JiraConfig     `mapstructure:"jira"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Template TemplateConfig `mapstructure:"template"`
	Tags     TagsConfig     `mapstructure:"tags"`
	Related  RelatedConfig  `mapstructure:"related"`
}

// JiraConfig holds Jira integration configuration.
type JiraConfig struct {
	URL        string `mapstructure:"url"`         // Ticket browse URL prefix; JIRA_URL env var is the fallback
	AutoDetect bool   `mapstructure:"auto_detect"` // Detect the tag from commit messages, offered for confirmation
}

// GitHubConfig holds GitHub integration configuration.
type GitHubConfig struct {
	User             string   `mapstructure:"user"`              // PR author to resolve related PRs for; GITHUB_USER env var is the fallback
	DefaultReviewers []string `mapstructure:"default_reviewers"` // Used when the repository exposes no collaborator list
	AuthMethod       string   `mapstructure:"auth_method"`       // "token", "oauth", "gh_cli"
	Token            string   `mapstructure:"token"`             // For token auth (GITHUB_TOKEN env var takes precedence)
	ClientID         string   `mapstructure:"client_id"`         // OAuth app client ID (for device flow)
}

// Markers delimit the related-PR section inside a PR body.
type Markers struct {
	Start string `mapstructure:"related_pr_start"`
	End   string `mapstructure:"related_pr_end"`
}

// FormField describes one user-supplied template field.
type FormField struct {
	Name     string `mapstructure:"name"`     // Placeholder name, unique within the field list
	Prompt   string `mapstructure:"prompt"`   // Question shown to the user
	Kind     string `mapstructure:"kind"`     // "single-line" or "multi-line-editor"
	Required bool   `mapstructure:"required"` // Re-prompt until non-empty
	Default  string `mapstructure:"default"`  // Optional prefill
}

// TemplateConfig holds the PR body template and its form fields.
type TemplateConfig struct {
	Body    string      `mapstructure:"body"`
	Markers Markers     `mapstructure:"markers"`
	Fields  []FormField `mapstructure:"fields"`
}

// TagsConfig holds tag extraction configuration.
type TagsConfig struct {
	Pattern string `mapstructure:"pattern"` // Regex for detecting tags in commit messages
}

// RelatedConfig holds related-PR resolution configuration.
type RelatedConfig struct {
	MatchStrategy string `mapstructure:"match_strategy"` // "substring" or "tag"
}

// Dir returns the configuration directory, honoring GIT_PR_CONFIG.
func Dir() (string, error) {
	if dir := os.Getenv("GIT_PR_CONFIG"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", prerrors.NewConfigErrorWithCause("", "failed to determine home directory", err)
	}
	return filepath.Join(home, ".config", "git-pr"), nil
}

// FilePath returns the path of the YAML config file inside dir.
func FilePath(dir string) string {
	return filepath.Join(dir, "config.yaml")
}

// HistoryPath returns the path of the tag-history file inside dir.
func HistoryPath(dir string) string {
	return filepath.Join(dir, "tags.txt")
}

// Init wires viper to the config file and environment. cfgFile may be empty,
// in which case the default location is searched. A missing file is fine.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GITPR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bare GITHUB_USER and JIRA_URL also work, alongside the GITPR_* namespace.
	_ = viper.BindEnv("github.user", "GITPR_GITHUB_USER", "GITHUB_USER")
	_ = viper.BindEnv("jira.url", "GITPR_JIRA_URL", "JIRA_URL")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if prerrors.As(err, &notFound) {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return prerrors.NewConfigErrorWithCause("", "failed to read config file", err)
	}

	return nil
}

// Load unmarshals the configuration from viper and validates it.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, prerrors.NewConfigErrorWithCause("", "failed to unmarshal config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// setDefaults registers default values with viper.
func setDefaults() {
	viper.SetDefault("jira.auto_detect", true)
	viper.SetDefault("tags.pattern", DefaultTagPattern)
	viper.SetDefault("related.match_strategy", MatchSubstring)
	viper.SetDefault("template.body", DefaultTemplateBody)
	viper.SetDefault("template.markers.related_pr_start", DefaultRelatedStart)
	viper.SetDefault("template.markers.related_pr_end", DefaultRelatedEnd)
	viper.SetDefault("template.fields", defaultFields())
}

func defaultFields() []map[string]any {
	return []map[string]any{
		{
			"name":     "description",
			"prompt":   "What is this PR doing:",
			"kind":     KindMultiLineEditor,
			"required": true,
		},
		{
			"name":     "implementation",
			"prompt":   "Considerations and implementation:",
			"kind":     KindMultiLineEditor,
			"required": false,
		},
	}
}

// Validate checks the configuration for structural problems. It is called once
// at startup; all violations are fatal before any mutation happens.
func (c *Config) Validate() error {
	if _, err := regexp.Compile(c.Tags.Pattern); err != nil {
		return prerrors.NewConfigErrorWithCause("tags.pattern", "invalid regular expression", err)
	}

	switch c.Related.MatchStrategy {
	case MatchSubstring, MatchTag:
	default:
		return prerrors.NewConfigError("related.match_strategy",
			"must be \"substring\" or \"tag\", got "+strings.TrimSpace(c.Related.MatchStrategy))
	}

	if err := c.validateMarkers(); err != nil {
		return err
	}

	return c.validateFields()
}

func (c *Config) validateMarkers() error {
	start, end := c.Template.Markers.Start, c.Template.Markers.End
	if start == "" {
		return prerrors.NewConfigError("template.markers.related_pr_start", "must not be empty")
	}
	if end == "" {
		return prerrors.NewConfigError("template.markers.related_pr_end", "must not be empty")
	}
	if start == end {
		return prerrors.NewConfigError("template.markers", "start and end markers must differ")
	}
	// The exactly-once counts below are unreliable when one marker is a
	// substring of the other.
	if strings.Contains(start, end) || strings.Contains(end, start) {
		return prerrors.NewConfigError("template.markers", "markers must not contain each other")
	}

	body := c.Template.Body
	if n := strings.Count(body, start); n != 1 {
		return prerrors.NewConfigErrorWithCause("template.body",
			"must contain the start marker exactly once",
			prerrors.Newf("found %d occurrences of %q", n, start))
	}
	if n := strings.Count(body, end); n != 1 {
		return prerrors.NewConfigErrorWithCause("template.body",
			"must contain the end marker exactly once",
			prerrors.Newf("found %d occurrences of %q", n, end))
	}
	if strings.Index(body, start) > strings.Index(body, end) {
		return prerrors.NewConfigError("template.body", "start marker must precede end marker")
	}

	return nil
}

func (c *Config) validateFields() error {
	seen := make(map[string]bool, len(c.Template.Fields))
	for i, field := range c.Template.Fields {
		if field.Name == "" {
			return prerrors.NewConfigErrorWithCause("template.fields",
				"field name must not be empty", prerrors.Newf("field at index %d", i))
		}
		if seen[field.Name] {
			return prerrors.NewConfigError("template.fields", "duplicate field name "+field.Name)
		}
		seen[field.Name] = true

		switch field.Kind {
		case KindSingleLine, KindMultiLineEditor:
		case "":
			// Unset kind defaults to the editor at prompt time.
		default:
			return prerrors.NewConfigError("template.fields",
				"field "+field.Name+" has unknown kind "+field.Kind)
		}
	}

	return nil
}
