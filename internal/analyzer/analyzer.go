package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/logger"
)

// DefaultPatterns are the path globs whose changes count as relevant.
var DefaultPatterns = []string{
	"**/components/**/*.tsx",
	"**/pages/**/*.tsx",
	"**/app/**/*.tsx",
	"**/lib/**/*.ts",
	"**/hooks/**/*.ts",
	"**/types/**/*.ts",
	"**/contexts/**/*.tsx",
}

// DefaultKeywords are the commit message words that force a suggestion.
var DefaultKeywords = []string{
	"refactor", "migration", "reorganization", "restructure",
	"migrate", "reorganize", "move", "rename",
	"consolidate", "split", "merge", "extract", "inline",
}

const (
	DefaultMinFiles = 3
	DefaultMinLines = 50
	DefaultBaseRef  = "HEAD~1"
	DefaultHeadRef  = "HEAD"

	// maxDetailFiles caps the file list attached to a suggestion.
	maxDetailFiles = 5
)

// Config controls what the analyzer considers significant.
type Config struct {
	Patterns []string
	Keywords []string
	MinFiles int
	MinLines int

	// BaseRef and HeadRef bound the diff. An empty HeadRef diffs against
	// the working tree.
	BaseRef string
	HeadRef string
}

// DefaultConfig returns the stock thresholds, patterns and keywords.
func DefaultConfig() Config {
	return Config{
		Patterns: append([]string(nil), DefaultPatterns...),
		Keywords: append([]string(nil), DefaultKeywords...),
		MinFiles: DefaultMinFiles,
		MinLines: DefaultMinLines,
		BaseRef:  DefaultBaseRef,
		HeadRef:  DefaultHeadRef,
	}
}

// Validate rejects thresholds below zero and malformed glob patterns.
func (c Config) Validate() error {
	if c.MinFiles < 0 {
		return errors.NewConfigError("analyzer.min_files", c.MinFiles, errors.New("must be non-negative"))
	}
	if c.MinLines < 0 {
		return errors.NewConfigError("analyzer.min_lines", c.MinLines, errors.New("must be non-negative"))
	}
	if c.BaseRef == "" {
		return errors.NewConfigError("analyzer.base_ref", c.BaseRef, errors.New("must not be empty"))
	}
	for _, p := range c.Patterns {
		if !doublestar.ValidatePattern(p) {
			return errors.NewConfigError("analyzer.patterns", p, errors.New("invalid glob pattern"))
		}
	}
	return nil
}

// History is the slice of the git client the analyzer queries.
type History interface {
	DiffNameOnly(ctx context.Context, from, to string) ([]string, error)
	DiffStat(ctx context.Context, from, to string) (string, error)
	LastCommitMessage(ctx context.Context) (string, error)
}

// Analysis describes the most recent change.
type Analysis struct {
	FilesChanged            int      `json:"files_changed" yaml:"files_changed"`
	RelevantFilesChanged    int      `json:"relevant_files_changed" yaml:"relevant_files_changed"`
	RelevantFiles           []string `json:"relevant_files,omitempty" yaml:"relevant_files,omitempty"`
	LinesChanged            int      `json:"lines_changed" yaml:"lines_changed"`
	HasTriggerKeyword       bool     `json:"has_trigger_keyword" yaml:"has_trigger_keyword"`
	ShouldSuggestCheckpoint bool     `json:"should_suggest_checkpoint" yaml:"should_suggest_checkpoint"`

	// Err is the history query failure that produced a negative result.
	Err error `json:"-" yaml:"-"`
}

// Suggestion is the human-readable summary of a significant change.
type Suggestion struct {
	Summary string   `json:"summary" yaml:"summary"`
	Details []string `json:"details" yaml:"details"`
}

// Analyzer inspects diff metadata of the latest commit.
type Analyzer struct {
	history  History
	config   Config
	keywords []string
	logger   logger.Logger
}

// New creates an Analyzer. Keywords are lower-cased and deduplicated.
func New(history History, config Config, log logger.Logger) *Analyzer {
	if log == nil {
		log = logger.Nop()
	}

	seen := make(map[string]bool, len(config.Keywords))
	var keywords []string
	for _, k := range config.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		keywords = append(keywords, k)
	}

	return &Analyzer{history: history, config: config, keywords: keywords, logger: log}
}

// Analyze compares BaseRef with HeadRef. Any failure to read history yields
// a negative result with Err set instead of an error.
func (a *Analyzer) Analyze(ctx context.Context) Analysis {
	files, err := a.history.DiffNameOnly(ctx, a.config.BaseRef, a.config.HeadRef)
	if err != nil {
		return a.degraded("list changed files", err)
	}

	stat, err := a.history.DiffStat(ctx, a.config.BaseRef, a.config.HeadRef)
	if err != nil {
		return a.degraded("read diff stat", err)
	}

	message, err := a.history.LastCommitMessage(ctx)
	if err != nil {
		return a.degraded("read commit message", err)
	}

	relevant := a.RelevantFiles(files)
	result := Analysis{
		FilesChanged:         len(files),
		RelevantFilesChanged: len(relevant),
		RelevantFiles:        relevant,
		LinesChanged:         ParseDiffStat(stat),
		HasTriggerKeyword:    a.HasTriggerKeyword(message),
	}
	result.ShouldSuggestCheckpoint = result.RelevantFilesChanged >= a.config.MinFiles ||
		result.LinesChanged >= a.config.MinLines ||
		result.HasTriggerKeyword

	a.logger.Info("Analysis: %d files (%d relevant), %d lines, keyword=%t, suggest=%t",
		result.FilesChanged, result.RelevantFilesChanged, result.LinesChanged,
		result.HasTriggerKeyword, result.ShouldSuggestCheckpoint)

	return result
}

func (a *Analyzer) degraded(what string, err error) Analysis {
	a.logger.Warning("Change analysis could not %s: %v", what, err)
	return Analysis{Err: errors.Wrapf(err, "could not %s", what)}
}

// RelevantFiles returns the paths matching at least one configured pattern,
// in input order.
func (a *Analyzer) RelevantFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if MatchAny(a.config.Patterns, p) {
			out = append(out, p)
		}
	}
	return out
}

// HasTriggerKeyword reports whether the lower-cased message contains any
// trigger keyword as a substring.
func (a *Analyzer) HasTriggerKeyword(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range a.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// MatchAny reports whether path matches any of the glob patterns. A "**"
// segment matches zero or more directories; "*" stays within one segment.
func MatchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

var diffStatSummary = regexp.MustCompile(`(\d+) files? changed(?:, (\d+) insertions?\(\+\))?(?:, (\d+) deletions?\(-\))?`)

// ParseDiffStat sums insertions and deletions over every summary line of
// `git diff --stat` output.
func ParseDiffStat(stat string) int {
	total := 0
	for _, m := range diffStatSummary.FindAllStringSubmatch(stat, -1) {
		for _, group := range m[2:] {
			if group == "" {
				continue
			}
			if n, err := strconv.Atoi(group); err == nil {
				total += n
			}
		}
	}
	return total
}

// Suggest renders the checkpoint summary for a positive analysis. The most
// specific reason wins: keyword, then file count, then line count.
func Suggest(a Analysis) Suggestion {
	var summary string
	switch {
	case a.HasTriggerKeyword:
		summary = "Large refactor/migration completed"
	case a.RelevantFilesChanged >= 5:
		summary = fmt.Sprintf("Multiple component changes (%d files)", a.RelevantFilesChanged)
	case a.LinesChanged >= 100:
		summary = fmt.Sprintf("Significant code changes (%d lines)", a.LinesChanged)
	default:
		summary = fmt.Sprintf("Code reorganization (%d files, %d lines)", a.RelevantFilesChanged, a.LinesChanged)
	}

	files := a.RelevantFiles
	if len(files) > maxDetailFiles {
		files = files[:maxDetailFiles]
	}

	return Suggestion{
		Summary: summary,
		Details: []string{
			fmt.Sprintf("Files changed: %d", a.RelevantFilesChanged),
			fmt.Sprintf("Lines changed: %d", a.LinesChanged),
			fmt.Sprintf("Trigger keyword: %s", yesNo(a.HasTriggerKeyword)),
			fmt.Sprintf("Key files: %s", strings.Join(files, ", ")),
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
