package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTagVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		tag  string
		want int
		ok   bool
	}{
		"first":          {"v0.1-auto", 1, true},
		"two digits":     {"v0.10-auto", 10, true},
		"zero":           {"v0.0-auto", 0, false},
		"major version":  {"v1.2-auto", 0, false},
		"suffix":         {"v0.3-auto-old", 0, false},
		"prefix":         {"release-v0.3-auto", 0, false},
		"non numeric":    {"v0.x-auto", 0, false},
		"plain semver":   {"v0.3.0", 0, false},
		"marker without": {"-auto", 0, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseTagVersion(tc.tag)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextVersion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		tags []string
		want int
	}{
		"no tags":                {nil, 1},
		"sequential":             {[]string{"v0.1-auto", "v0.2-auto"}, 3},
		"gaps use max":           {[]string{"v0.1-auto", "v0.7-auto"}, 8},
		"lexical order ignored":  {[]string{"v0.10-auto", "v0.9-auto", "v0.2-auto"}, 11},
		"malformed count as 0":   {[]string{"broken-auto", "v0.x-auto"}, 1},
		"malformed among valid":  {[]string{"nightly-auto", "v0.4-auto"}, 5},
		"unrelated tags ignored": {[]string{"v2.0.0", "v0.3-auto"}, 4},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NextVersion(tc.tags))
		})
	}
}

func TestSortTags(t *testing.T) {
	t.Parallel()

	got := SortTags([]string{"v0.1-auto", "v0.10-auto", "bogus-auto", "v0.2-auto", "v0.9-auto"})
	assert.Equal(t, []string{"v0.10-auto", "v0.9-auto", "v0.2-auto", "v0.1-auto"}, got)

	assert.Empty(t, SortTags([]string{"bogus-auto"}))
}

func TestTagName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "v0.1-auto", TagName(1))
	assert.Equal(t, "v0.42-auto", TagName(42))
}
