package semver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Version
		wantErr bool
	}{
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3, Original: "1.2.3"}, false},
		{"v1.2.3", Version{Major: 1, Minor: 2, Patch: 3, VPrefix: true, Original: "v1.2.3"}, false},
		{"v0.0.1", Version{Major: 0, Minor: 0, Patch: 1, VPrefix: true, Original: "v0.0.1"}, false},
		{"v10.20.30", Version{Major: 10, Minor: 20, Patch: 30, VPrefix: true, Original: "v10.20.30"}, false},
		{"  v1.0.0  ", Version{Major: 1, Minor: 0, Patch: 0, VPrefix: true, Original: "v1.0.0"}, false},
		{"v01.2.3", Version{Major: 1, Minor: 2, Patch: 3, VPrefix: true, Original: "v01.2.3"}, false},
		{"", Version{}, true},
		{"1.2", Version{}, true},
		{"v1", Version{}, true},
		{"1.2.3-beta", Version{}, true},
		{"1.2.3+build", Version{}, true},
		{"release-1.2.3", Version{}, true},
		{"v1.2.3.4", Version{}, true},
		{"latest", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *v)
		})
	}
}

func TestParseOverflow(t *testing.T) {
	// A tag that matches the pattern but overflows int conversion is the
	// one fatal parse case; everything else malformed is just skipped.
	_, err := Parse("v99999999999999999999.0.0")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "v99999999999999999999.0.0", perr.Tag)
}

func TestString(t *testing.T) {
	assert.Equal(t, "v1.2.3", MustParse("v1.2.3").String())
	assert.Equal(t, "1.2.3", MustParse("1.2.3").String())

	computed := &Version{Major: 1, Minor: 2, Patch: 4, VPrefix: true}
	assert.Equal(t, "v1.2.4", computed.String())

	plain := &Version{Major: 2, Minor: 0, Patch: 0}
	assert.Equal(t, "2.0.0", plain.String())
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"v1.0.0", "1.0.0", 0},
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.9.9", 1},
		{"1.1.0", "1.2.0", -1},
		{"1.0.9", "1.0.10", -1},
		{"v1.0.2", "v1.0.1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			got := Compare(MustParse(tt.a), MustParse(tt.b))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatest(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
		ok   bool
	}{
		{
			name: "picks highest tuple",
			tags: []string{"v0.9.0", "v1.0.0", "v1.0.1"},
			want: "v1.0.1",
			ok:   true,
		},
		{
			name: "order of listing is irrelevant",
			tags: []string{"v1.0.1", "v0.9.0", "v1.0.0"},
			want: "v1.0.1",
			ok:   true,
		},
		{
			name: "malformed tags never become the selection",
			tags: []string{"nightly", "v0.5.0", "v1.0.0-rc1", "release-2.0"},
			want: "v0.5.0",
			ok:   true,
		},
		{
			name: "numeric compare beats string compare",
			tags: []string{"v1.0.9", "v1.0.10"},
			want: "v1.0.10",
			ok:   true,
		},
		{
			name: "equal tuples keep the first encountered",
			tags: []string{"v1.0.0", "1.0.0"},
			want: "v1.0.0",
			ok:   true,
		},
		{
			name: "equal tuples keep the first encountered, reversed",
			tags: []string{"1.0.0", "v1.0.0"},
			want: "1.0.0",
			ok:   true,
		},
		{
			name: "no release tags",
			tags: []string{"nightly", "latest", ""},
			ok:   false,
		},
		{
			name: "empty list",
			tags: nil,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := Latest(tt.tags)
			require.NoError(t, err)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, v.String())
			}
		})
	}
}

func TestLatestOverflowIsFatal(t *testing.T) {
	_, _, err := Latest([]string{"v1.0.0", "v99999999999999999999.0.0"})

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
}

func TestNextPatch(t *testing.T) {
	assert.Equal(t, "v1.2.4", NextPatch(MustParse("v1.2.3")).String())
	assert.Equal(t, "2.3.10", NextPatch(MustParse("2.3.9")).String())
	assert.Equal(t, "v0.99.100", NextPatch(MustParse("v0.99.99")).String())
}

func TestNextRelease(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{
			name: "bumps the highest release",
			tags: []string{"v0.9.0", "v1.0.0", "v1.0.1"},
			want: "v1.0.2",
		},
		{
			name: "keeps the plain convention",
			tags: []string{"0.1.0", "0.2.0"},
			want: "0.2.1",
		},
		{
			name: "no tags yields the baseline",
			tags: nil,
			want: "v0.1.0",
		},
		{
			name: "only malformed tags yields the baseline",
			tags: []string{"nightly", "v2.0"},
			want: "v0.1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NextRelease(tt.tags)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}
