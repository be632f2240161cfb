package config

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bashhack/gitcheckpoint/internal/analyzer"
	"github.com/bashhack/gitcheckpoint/internal/changelog"
	"github.com/bashhack/gitcheckpoint/internal/checkpoint"
	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/monitor"
	"github.com/bashhack/gitcheckpoint/internal/report"
	"github.com/bashhack/gitcheckpoint/internal/validate"
)

const (
	// configName is the config file name without extension.
	configName = ".gitcheckpoint"
	configType = "yaml"

	// EnvPrefix prefixes every environment override, e.g.
	// GITCHECKPOINT_ANALYZER_MIN_FILES.
	EnvPrefix = "GITCHECKPOINT"
)

// Config holds all gitcheckpoint settings after defaults, the config file,
// the environment and command-line flags have been merged.
type Config struct {
	// RepoPath is the repository to operate on. Empty means the current
	// directory; Finalize makes it absolute.
	RepoPath string `mapstructure:"repo"`

	// Debug enables the JSON debug log at LogFile.
	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"`

	// Quiet hides informational terminal output. Errors and the result
	// block are still printed.
	Quiet bool `mapstructure:"quiet"`

	// NonInteractive answers every confirmation prompt with "yes", as if
	// each command had been given --yes.
	NonInteractive bool `mapstructure:"non_interactive"`

	// Format is the result block encoding: json, yaml or none.
	Format string `mapstructure:"format"`

	// Changelog is the changelog path, relative to RepoPath unless absolute.
	Changelog string `mapstructure:"changelog"`

	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	Validator  ValidatorConfig  `mapstructure:"validator"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Monitor    MonitorConfig    `mapstructure:"monitor"`

	// VersionInfo is injected at build time, never read from config.
	VersionInfo VersionInfo `mapstructure:"-"`
}

// AnalyzerConfig configures change significance.
type AnalyzerConfig struct {
	MinFiles int      `mapstructure:"min_files"`
	MinLines int      `mapstructure:"min_lines"`
	Patterns []string `mapstructure:"patterns"`
	Keywords []string `mapstructure:"keywords"`
	BaseRef  string   `mapstructure:"base_ref"`
	HeadRef  string   `mapstructure:"head_ref"`
}

// ValidatorConfig holds the tool command lines.
type ValidatorConfig struct {
	Typecheck []string      `mapstructure:"typecheck"`
	Lint      []string      `mapstructure:"lint"`
	Build     []string      `mapstructure:"build"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CheckpointConfig controls publishing.
type CheckpointConfig struct {
	Push   bool   `mapstructure:"push"`
	Remote string `mapstructure:"remote"`
}

// MonitorConfig controls the monitor loop.
type MonitorConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	Debounce    time.Duration `mapstructure:"debounce"`
	Watch       bool          `mapstructure:"watch"`
	InstallHook bool          `mapstructure:"install_hook"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// DefaultVersionInfo is reported by development builds.
var DefaultVersionInfo = VersionInfo{Version: "dev", Commit: "unknown", Date: "unknown"}

// Loader merges defaults, the config file, GITCHECKPOINT_* environment
// variables and bound flags, in increasing order of precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with every default applied.
func NewLoader() *Loader {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("repo", "")
	v.SetDefault("debug", false)
	v.SetDefault("log_file", "")
	v.SetDefault("quiet", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("format", string(report.FormatJSON))
	v.SetDefault("changelog", changelog.DefaultPath)

	v.SetDefault("analyzer.min_files", analyzer.DefaultMinFiles)
	v.SetDefault("analyzer.min_lines", analyzer.DefaultMinLines)
	v.SetDefault("analyzer.patterns", analyzer.DefaultPatterns)
	v.SetDefault("analyzer.keywords", analyzer.DefaultKeywords)
	v.SetDefault("analyzer.base_ref", analyzer.DefaultBaseRef)
	v.SetDefault("analyzer.head_ref", analyzer.DefaultHeadRef)

	vd := validate.DefaultConfig()
	v.SetDefault("validator.typecheck", vd.Typecheck)
	v.SetDefault("validator.lint", vd.Lint)
	v.SetDefault("validator.build", vd.Build)
	v.SetDefault("validator.timeout", vd.Timeout)

	v.SetDefault("checkpoint.push", true)
	v.SetDefault("checkpoint.remote", checkpoint.DefaultRemote)

	v.SetDefault("monitor.interval", monitor.DefaultInterval)
	v.SetDefault("monitor.debounce", monitor.DefaultDebounce)
	v.SetDefault("monitor.watch", true)
	v.SetDefault("monitor.install_hook", true)
	v.SetDefault("monitor.metrics_addr", "")
}

// BindFlag makes a command-line flag override key when the flag is set.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return errors.Errorf("no flag to bind for %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the config file and returns the merged configuration. With an
// empty configPath, .gitcheckpoint.yaml is searched in the repository root
// and then $HOME; a missing file is not an error.
func (l *Loader) Load(configPath string) (*Config, error) {
	if configPath != "" {
		l.v.SetConfigFile(configPath)
	} else {
		l.v.SetConfigName(configName)
		repo := l.v.GetString("repo")
		if repo == "" {
			repo = "."
		}
		l.v.AddConfigPath(repo)
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(home)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", configPath, errors.Wrap(err, "failed to read config file"))
		}
	}

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errors.NewConfigError("config", l.v.ConfigFileUsed(), errors.Wrap(err, "failed to decode config"))
	}
	cfg.VersionInfo = DefaultVersionInfo
	return cfg, nil
}

// ConfigFileUsed returns the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// New returns the default configuration without reading any file,
// environment or flags.
func New() *Config {
	l := &Loader{v: viper.New()}
	applyDefaults(l.v)

	cfg := &Config{}
	// Defaults always decode.
	_ = l.v.Unmarshal(cfg)
	cfg.VersionInfo = DefaultVersionInfo
	return cfg
}

// Finalize validates and finalizes the configuration
func (c *Config) Finalize() error {
	if c.RepoPath == "" {
		var err error
		c.RepoPath, err = os.Getwd()
		if err != nil {
			return errors.NewConfigError("repo", "", errors.Wrap(err, "failed to get current directory"))
		}
	}

	absRepoPath, err := filepath.Abs(c.RepoPath)
	if err != nil {
		return errors.NewConfigError("repo", c.RepoPath, errors.Wrap(err, "failed to resolve absolute path"))
	}
	c.RepoPath = absRepoPath

	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}

	if c.Changelog == "" {
		c.Changelog = changelog.DefaultPath
	}
	if !filepath.IsAbs(c.Changelog) {
		c.Changelog = filepath.Join(c.RepoPath, c.Changelog)
	}

	if err := c.AnalyzerConfig().Validate(); err != nil {
		return err
	}
	if err := c.ValidatorConfig().Validate(); err != nil {
		return err
	}

	if c.Checkpoint.Remote == "" {
		return errors.NewConfigError("checkpoint.remote", c.Checkpoint.Remote, errors.New("must not be empty"))
	}
	if c.Monitor.Interval <= 0 {
		return errors.NewConfigError("monitor.interval", c.Monitor.Interval, errors.New("must be greater than 0"))
	}
	if c.Monitor.Debounce <= 0 {
		return errors.NewConfigError("monitor.debounce", c.Monitor.Debounce, errors.New("must be greater than 0"))
	}

	if c.LogFile == "" {
		// Follow XDG Base Directory Specification
		logDir := os.Getenv("XDG_DATA_HOME")
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				logDir = filepath.Join(homeDir, ".local", "share")
			} else {
				logDir = os.TempDir()
			}
		}

		repoHash := fmt.Sprintf("%x", sha256OfString(c.RepoPath)[:8])
		c.LogFile = filepath.Join(logDir, "gitcheckpoint", "logs", fmt.Sprintf("gitcheckpoint-%s.log", repoHash))
	}

	if c.Debug {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o700); err != nil {
			return errors.NewConfigError("log_file", c.LogFile, errors.Wrap(err, "cannot create log directory"))
		}
	}

	return nil
}

// ReportFormat returns the parsed result block format.
func (c *Config) ReportFormat() report.Format {
	f, err := report.ParseFormat(c.Format)
	if err != nil {
		return report.FormatJSON
	}
	return f
}

// AnalyzerConfig converts the analyzer section.
func (c *Config) AnalyzerConfig() analyzer.Config {
	return analyzer.Config{
		Patterns: c.Analyzer.Patterns,
		Keywords: c.Analyzer.Keywords,
		MinFiles: c.Analyzer.MinFiles,
		MinLines: c.Analyzer.MinLines,
		BaseRef:  c.Analyzer.BaseRef,
		HeadRef:  c.Analyzer.HeadRef,
	}
}

// ValidatorConfig converts the validator section.
func (c *Config) ValidatorConfig() validate.Config {
	return validate.Config{
		Typecheck: c.Validator.Typecheck,
		Lint:      c.Validator.Lint,
		Build:     c.Validator.Build,
		Timeout:   c.Validator.Timeout,
	}
}

// CheckpointConfig converts the checkpoint section.
func (c *Config) CheckpointConfig() checkpoint.Config {
	return checkpoint.Config{Push: c.Checkpoint.Push, Remote: c.Checkpoint.Remote}
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
