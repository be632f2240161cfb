package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashhack/gitcheckpoint/internal/analyzer"
	"github.com/bashhack/gitcheckpoint/internal/changelog"
	"github.com/bashhack/gitcheckpoint/internal/errors"
	"github.com/bashhack/gitcheckpoint/internal/monitor"
	"github.com/bashhack/gitcheckpoint/internal/validate"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".gitcheckpoint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig(t *testing.T) {
	c := New()

	assert.Equal(t, analyzer.DefaultMinFiles, c.Analyzer.MinFiles)
	assert.Equal(t, analyzer.DefaultMinLines, c.Analyzer.MinLines)
	assert.Equal(t, analyzer.DefaultPatterns, c.Analyzer.Patterns)
	assert.Equal(t, analyzer.DefaultKeywords, c.Analyzer.Keywords)
	assert.Equal(t, "HEAD~1", c.Analyzer.BaseRef)
	assert.Equal(t, "HEAD", c.Analyzer.HeadRef)

	vd := validate.DefaultConfig()
	assert.Equal(t, vd.Typecheck, c.Validator.Typecheck)
	assert.Equal(t, vd.Lint, c.Validator.Lint)
	assert.Equal(t, vd.Build, c.Validator.Build)
	assert.Equal(t, vd.Timeout, c.Validator.Timeout)

	assert.True(t, c.Checkpoint.Push)
	assert.Equal(t, "origin", c.Checkpoint.Remote)
	assert.Equal(t, changelog.DefaultPath, c.Changelog)
	assert.Equal(t, "json", c.Format)

	assert.Equal(t, monitor.DefaultInterval, c.Monitor.Interval)
	assert.Equal(t, monitor.DefaultDebounce, c.Monitor.Debounce)
	assert.True(t, c.Monitor.Watch)
	assert.True(t, c.Monitor.InstallHook)
	assert.Empty(t, c.Monitor.MetricsAddr)

	assert.False(t, c.Debug)
	assert.False(t, c.NonInteractive)
	assert.Equal(t, DefaultVersionInfo, c.VersionInfo)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
format: yaml
changelog: docs/CHANGES.md
analyzer:
  min_files: 5
  min_lines: 120
  patterns: ["app/**/*.go"]
  keywords: ["Release"]
validator:
  typecheck: ["go", "vet", "./..."]
  timeout: 90s
checkpoint:
  push: false
  remote: upstream
monitor:
  interval: 1m
  metrics_addr: "127.0.0.1:9464"
`)

	l := NewLoader()
	c, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, l.ConfigFileUsed())

	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "docs/CHANGES.md", c.Changelog)
	assert.Equal(t, 5, c.Analyzer.MinFiles)
	assert.Equal(t, 120, c.Analyzer.MinLines)
	assert.Equal(t, []string{"app/**/*.go"}, c.Analyzer.Patterns)
	assert.Equal(t, []string{"Release"}, c.Analyzer.Keywords)
	assert.Equal(t, []string{"go", "vet", "./..."}, c.Validator.Typecheck)
	assert.Equal(t, 90*time.Second, c.Validator.Timeout)
	assert.False(t, c.Checkpoint.Push)
	assert.Equal(t, "upstream", c.Checkpoint.Remote)
	assert.Equal(t, time.Minute, c.Monitor.Interval)
	assert.Equal(t, "127.0.0.1:9464", c.Monitor.MetricsAddr)

	// Keys the file leaves out keep their defaults.
	assert.Equal(t, validate.DefaultConfig().Lint, c.Validator.Lint)
	assert.Equal(t, monitor.DefaultDebounce, c.Monitor.Debounce)
}

func TestLoadSearchesRepository(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "analyzer:\n  min_files: 9\n")
	t.Setenv("GITCHECKPOINT_REPO", dir)

	l := NewLoader()
	c, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Analyzer.MinFiles)
	assert.Equal(t, dir, c.RepoPath)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("GITCHECKPOINT_REPO", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	c, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, analyzer.DefaultMinFiles, c.Analyzer.MinFiles)
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "analyzer: [this is not a map\n")

	_, err := NewLoader().Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfiguration)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfiguration)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "analyzer:\n  min_lines: 10\ncheckpoint:\n  remote: upstream\n")
	t.Setenv("GITCHECKPOINT_ANALYZER_MIN_LINES", "400")
	t.Setenv("GITCHECKPOINT_NON_INTERACTIVE", "true")

	c, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, 400, c.Analyzer.MinLines)
	assert.True(t, c.NonInteractive)
	assert.Equal(t, "upstream", c.Checkpoint.Remote)
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("GITCHECKPOINT_FORMAT", "yaml")
	t.Setenv("GITCHECKPOINT_CHECKPOINT_REMOTE", "envremote")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("format", "json", "")
	fs.String("remote", "origin", "")
	require.NoError(t, fs.Parse([]string{"--format", "none"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("format", fs.Lookup("format")))
	require.NoError(t, l.BindFlag("checkpoint.remote", fs.Lookup("remote")))

	t.Setenv("GITCHECKPOINT_REPO", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	c, err := l.Load("")
	require.NoError(t, err)

	assert.Equal(t, "none", c.Format, "a set flag beats the environment")
	assert.Equal(t, "envremote", c.Checkpoint.Remote, "an unset flag does not mask the environment")
}

func TestBindFlagRequiresFlag(t *testing.T) {
	err := NewLoader().BindFlag("format", nil)
	assert.Error(t, err)
}

func TestFinalize(t *testing.T) {
	t.Run("resolves paths", func(t *testing.T) {
		dataHome := t.TempDir()
		t.Setenv("XDG_DATA_HOME", dataHome)

		repo := t.TempDir()
		c := New()
		c.RepoPath = repo
		require.NoError(t, c.Finalize())

		assert.True(t, filepath.IsAbs(c.RepoPath))
		assert.Equal(t, filepath.Join(repo, changelog.DefaultPath), c.Changelog)
		assert.True(t, strings.HasPrefix(c.LogFile, filepath.Join(dataHome, "gitcheckpoint", "logs", "gitcheckpoint-")))
		assert.True(t, strings.HasSuffix(c.LogFile, ".log"))
	})

	t.Run("log file name is stable per repository", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())
		repo := t.TempDir()

		a, b := New(), New()
		a.RepoPath, b.RepoPath = repo, repo
		require.NoError(t, a.Finalize())
		require.NoError(t, b.Finalize())
		assert.Equal(t, a.LogFile, b.LogFile)

		other := New()
		other.RepoPath = t.TempDir()
		require.NoError(t, other.Finalize())
		assert.NotEqual(t, a.LogFile, other.LogFile)
	})

	t.Run("keeps absolute changelog and explicit log file", func(t *testing.T) {
		abs := filepath.Join(t.TempDir(), "CHANGES.md")
		logFile := filepath.Join(t.TempDir(), "debug.log")

		c := New()
		c.RepoPath = t.TempDir()
		c.Changelog = abs
		c.LogFile = logFile
		require.NoError(t, c.Finalize())
		assert.Equal(t, abs, c.Changelog)
		assert.Equal(t, logFile, c.LogFile)
	})

	t.Run("debug creates log directory", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "nested", "dir", "debug.log")
		c := New()
		c.RepoPath = t.TempDir()
		c.Debug = true
		c.LogFile = logFile
		require.NoError(t, c.Finalize())

		info, err := os.Stat(filepath.Dir(logFile))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty repo path uses working directory", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)

		c := New()
		c.LogFile = filepath.Join(t.TempDir(), "x.log")
		require.NoError(t, c.Finalize())
		assert.Equal(t, wd, c.RepoPath)
	})
}

func TestFinalizeRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		param  string
	}{
		{"format", func(c *Config) { c.Format = "xml" }, "format"},
		{"negative min files", func(c *Config) { c.Analyzer.MinFiles = -1 }, ""},
		{"bad pattern", func(c *Config) { c.Analyzer.Patterns = []string{"src/[.ts"} }, ""},
		{"empty lint command", func(c *Config) { c.Validator.Lint = nil }, ""},
		{"zero timeout", func(c *Config) { c.Validator.Timeout = 0 }, ""},
		{"empty remote", func(c *Config) { c.Checkpoint.Remote = "" }, "checkpoint.remote"},
		{"zero interval", func(c *Config) { c.Monitor.Interval = 0 }, "monitor.interval"},
		{"negative debounce", func(c *Config) { c.Monitor.Debounce = -time.Second }, "monitor.debounce"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.RepoPath = t.TempDir()
			c.LogFile = filepath.Join(t.TempDir(), "x.log")
			tt.modify(c)

			err := c.Finalize()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfiguration)

			if tt.param != "" {
				var cfgErr *errors.ConfigError
				require.ErrorAs(t, err, &cfgErr)
				assert.Equal(t, tt.param, cfgErr.Parameter)
			}
		})
	}
}

func TestSectionConversions(t *testing.T) {
	c := New()
	c.Analyzer.MinFiles = 7
	c.Analyzer.HeadRef = ""
	c.Validator.Timeout = time.Minute
	c.Checkpoint.Push = false
	c.Checkpoint.Remote = "backup"

	ac := c.AnalyzerConfig()
	assert.Equal(t, 7, ac.MinFiles)
	assert.Empty(t, ac.HeadRef)

	assert.Equal(t, time.Minute, c.ValidatorConfig().Timeout)

	cc := c.CheckpointConfig()
	assert.False(t, cc.Push)
	assert.Equal(t, "backup", cc.Remote)

	c.Format = "yaml"
	assert.Equal(t, "yaml", string(c.ReportFormat()))
	c.Format = "bogus"
	assert.Equal(t, "json", string(c.ReportFormat()))
}
