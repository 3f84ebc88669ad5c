// Package semver parses and compares release tags of the form
// v?MAJOR.MINOR.PATCH and computes the next patch release.
package semver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version represents a parsed release tag.
type Version struct {
	Major    int
	Minor    int
	Patch    int
	VPrefix  bool   // tag carried a leading "v"
	Original string // original tag text, empty for computed versions
}

// tagRegex matches release tags: an optional leading "v" followed by three
// dot-separated numeric components. Anything else (prereleases, build
// metadata, partial versions) is not a release tag.
var tagRegex = regexp.MustCompile(
	`^(?P<prefix>v?)(?P<major>\d+)\.(?P<minor>\d+)\.(?P<patch>\d+)$`,
)

// ParseError reports a tag that matched the release pattern but whose
// numeric components could not be converted (numeral overflow).
type ParseError struct {
	Tag string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse version from tag %q: %v", e.Tag, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse parses a release tag into a Version.
// Tags that do not match the v?MAJOR.MINOR.PATCH pattern return a plain
// error; callers scanning tag lists skip those. A *ParseError is returned
// only when a pattern-matched component fails integer conversion.
func Parse(s string) (*Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty tag")
	}

	match := tagRegex.FindStringSubmatch(s)
	if match == nil {
		return nil, fmt.Errorf("not a release tag: %q", s)
	}

	v := &Version{Original: s}

	for i, name := range tagRegex.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		value := match[i]

		switch name {
		case "prefix":
			v.VPrefix = value == "v"
		case "major":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ParseError{Tag: s, Err: err}
			}
			v.Major = n
		case "minor":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ParseError{Tag: s, Err: err}
			}
			v.Minor = n
		case "patch":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, &ParseError{Tag: s, Err: err}
			}
			v.Patch = n
		}
	}

	return v, nil
}

// MustParse parses a release tag and panics on error.
// Use only for known-good version strings.
func MustParse(s string) *Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsValid checks if a string is a well-formed release tag.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String returns the tag representation of the version.
// Computed versions render from their components, keeping the v convention.
func (v *Version) String() string {
	if v.Original != "" {
		return v.Original
	}

	var sb strings.Builder
	if v.VPrefix {
		sb.WriteByte('v')
	}
	sb.WriteString(strconv.Itoa(v.Major))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(v.Minor))
	sb.WriteByte('.')
	sb.WriteString(strconv.Itoa(v.Patch))
	return sb.String()
}

// Compare compares two versions by their (major, minor, patch) tuple.
// Returns -1 if a < b, 0 if a == b, 1 if a > b. The v prefix and the
// original spelling never participate in ordering.
func Compare(a, b *Version) int {
	if a.Major != b.Major {
		if a.Major < b.Major {
			return -1
		}
		return 1
	}
	if a.Minor != b.Minor {
		if a.Minor < b.Minor {
			return -1
		}
		return 1
	}
	if a.Patch != b.Patch {
		if a.Patch < b.Patch {
			return -1
		}
		return 1
	}
	return 0
}

// Latest scans tags and returns the highest release version.
// Non-release tags are skipped. Tags normalizing to an equal tuple keep the
// first one encountered: a later tag only wins a strictly greater compare.
// Returns false when no tag parses as a release version.
func Latest(tags []string) (*Version, bool, error) {
	var best *Version
	for _, tag := range tags {
		v, err := Parse(tag)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				return nil, false, err
			}
			continue
		}
		if best == nil || Compare(v, best) > 0 {
			best = v
		}
	}
	if best == nil {
		return nil, false, nil
	}
	return best, true, nil
}

// NextPatch returns the patch-bumped successor of v, preserving its
// leading-v convention. The result is a computed version (no Original).
func NextPatch(v *Version) *Version {
	return &Version{
		Major:   v.Major,
		Minor:   v.Minor,
		Patch:   v.Patch + 1,
		VPrefix: v.VPrefix,
	}
}

// Baseline returns the first-release version used when a repository has no
// release tags yet. It renders as v0.1.0.
func Baseline() *Version {
	return &Version{Major: 0, Minor: 1, Patch: 0, VPrefix: true}
}

// NextRelease computes the tag for the next release from the repository's
// existing tags: the baseline when none parse, otherwise the patch bump of
// the highest version.
func NextRelease(tags []string) (*Version, error) {
	latest, ok, err := Latest(tags)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Baseline(), nil
	}
	return NextPatch(latest), nil
}
