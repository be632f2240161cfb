package checkpoint

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// TagPattern is the git glob used to list checkpoint candidates.
	TagPattern = "*auto"

	// tagMarker must appear in a tag name for it to take part in version
	// allocation.
	tagMarker = "-auto"
)

var tagVersion = regexp.MustCompile(`^v0\.(\d+)-auto$`)

// TagName returns the tag for a checkpoint version.
func TagName(version int) string {
	return "v0." + strconv.Itoa(version) + tagMarker
}

// ParseTagVersion extracts N from a well-formed "v0.N-auto" tag.
func ParseTagVersion(tag string) (int, bool) {
	m := tagVersion.FindStringSubmatch(tag)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// NextVersion allocates max+1 over the listed tags. Tags containing "-auto"
// that are not well formed count as version 0, so they never block
// allocation. With no checkpoints the first version is 1.
func NextVersion(tags []string) int {
	highest := 0
	for _, tag := range tags {
		if !strings.Contains(tag, tagMarker) {
			continue
		}
		if n, ok := ParseTagVersion(tag); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// SortTags returns the well-formed checkpoint tags ordered by version,
// highest first. Malformed names are dropped.
func SortTags(tags []string) []string {
	type versioned struct {
		tag string
		n   int
	}

	var vs []versioned
	for _, tag := range tags {
		if n, ok := ParseTagVersion(tag); ok {
			vs = append(vs, versioned{tag, n})
		}
	}
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].n > vs[j].n })

	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.tag
	}
	return out
}
