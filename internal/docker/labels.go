package docker

import (
	"time"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// ReleaseLabels returns the standard OCI annotations applied to a released
// image: creation time, source repository, git revision, and version.
// Empty values are omitted.
func ReleaseLabels(source, revision, version string) map[string]string {
	labels := map[string]string{
		ocispec.AnnotationCreated: time.Now().UTC().Format(time.RFC3339),
	}
	if source != "" {
		labels[ocispec.AnnotationSource] = source
	}
	if revision != "" {
		labels[ocispec.AnnotationRevision] = revision
	}
	if version != "" {
		labels[ocispec.AnnotationVersion] = version
	}
	return labels
}

// MergeLabels overlays extra onto base without mutating either map.
// Keys in extra win.
func MergeLabels(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
