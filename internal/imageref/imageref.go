// Package imageref derives and validates the image reference a release
// publishes to. A reference is resolved once, from an explicit flag or from
// the repository's Git remote, and never mutated afterward.
package imageref

import (
	"fmt"
	"regexp"
	"strings"
)

// Source indicates where an image name was resolved from.
type Source string

const (
	SourceExplicit Source = "explicit" // user specified via --image
	SourceInferred Source = "inferred" // derived from the Git remote URL
	SourceConfig   Source = "config"   // default_image from the config file
)

// Reference is a fully resolved image reference.
type Reference struct {
	Registry string // registry host, empty for Docker Hub
	Name     string // namespace/repo
	Tag      string
	Source   Source // where Name came from
}

// String renders the reference as [registry/]name:tag.
func (r Reference) String() string {
	if r.Registry != "" {
		return r.Registry + "/" + r.Name + ":" + r.Tag
	}
	return r.Name + ":" + r.Tag
}

// nameRegexp matches a normalized namespace/repo image name: exactly two
// non-empty path segments separated by one slash.
var nameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*/[a-z0-9._-]+$`)

// tagRegexp matches a valid image tag per the registry tag grammar.
var tagRegexp = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]{0,127}$`)

// RemoteParseError reports a Git remote URL that does not match either
// recognized form (SSH git@host:owner/repo.git or HTTPS
// https://host/owner/repo.git).
type RemoteParseError struct {
	Remote string
}

func (e *RemoteParseError) Error() string {
	return fmt.Sprintf("cannot infer an image name from remote %q: expected git@host:owner/repo.git or https://host/owner/repo.git", e.Remote)
}

// InferName derives a default owner/repo image name from a Git remote URL.
// The result is lower-cased, with any .git suffix and trailing slash
// stripped. Returns a *RemoteParseError when the URL does not reduce to
// exactly two path segments.
//
// The two forms treat deep paths differently on purpose: an HTTPS URL keeps
// its final two segments (https://host/group/sub/repo -> sub/repo, matching
// nested-group hosts like GitLab), while an scp-style remote takes the whole
// path after the colon, so git@host:group/sub/repo fails as unparseable.
func InferName(remote string) (string, error) {
	trimmed := strings.TrimSpace(remote)
	trimmed = strings.TrimRight(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	trimmed = strings.TrimRight(trimmed, "/")

	var path string
	if strings.Contains(trimmed, ":") && !strings.Contains(trimmed, "://") {
		// scp-like syntax: git@host:owner/repo
		_, path, _ = strings.Cut(trimmed, ":")
	} else if segments := strings.Split(trimmed, "/"); len(segments) >= 2 {
		// URL syntax: keep the final two path segments
		path = segments[len(segments)-2] + "/" + segments[len(segments)-1]
	}

	name := strings.ToLower(strings.Trim(path, "/"))
	if !nameRegexp.MatchString(name) {
		return "", &RemoteParseError{Remote: remote}
	}
	return name, nil
}

// ValidateName checks an explicitly supplied image name against the
// normalized namespace/repo form.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return fmt.Errorf("invalid image name %q: want namespace/repo with lowercase letters, digits, and . _ -", name)
	}
	return nil
}

// ValidateTag checks a tag against the registry tag grammar.
func ValidateTag(tag string) error {
	if !tagRegexp.MatchString(tag) {
		return fmt.Errorf("invalid image tag %q: must start with a letter, digit, or underscore and contain at most 128 characters", tag)
	}
	return nil
}
