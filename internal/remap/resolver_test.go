package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_WithoutSourceRoot(t *testing.T) {
	h := handle(t, "/proj/dist/app.js.map", "", []string{"../src/app.ts", "../../outside/x.ts"},
		map[int]target{10: {0, 4}, 12: {1, 7}})
	r := NewResolver(h, "/proj")

	loc, ok := r.Resolve(10)
	require.True(t, ok)
	assert.Equal(t, Location{Path: "./src/app.ts", Line: 4}, loc)

	loc, ok = r.Resolve(12)
	require.True(t, ok)
	assert.Equal(t, "./../outside/x.ts", loc.Path)

	_, ok = r.Resolve(11)
	assert.False(t, ok, "line without mappings is unresolvable")
}

func TestResolver_SourceDirBelowMap(t *testing.T) {
	h := handle(t, "/proj/dist/app.js.map", "", []string{"../src/lib/util.ts"}, map[int]target{1: {0, 1}})
	r := NewResolver(h, "/proj/src")

	loc, ok := r.Resolve(1)
	require.True(t, ok)
	assert.Equal(t, "./lib/util.ts", loc.Path)
}

func TestResolver_WithSourceRoot(t *testing.T) {
	tests := []struct {
		name   string
		root   string
		source string
		want   string
	}{
		{"root with trailing slash", "src/", "app.ts", "./app.ts"},
		// The root-joined source keeps the separator the root lacked; the
		// replaced result is left as is.
		{"root without trailing slash", "src", "app.ts", ".//app.ts"},
		{"absolute root", "/repo/", "lib/a.ts", "./lib/a.ts"},
		{"root absent from source", "build/", "webpack:///src/a.ts", "webpack:///src/a.ts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handle(t, "/proj/dist/app.js.map", tt.root, []string{tt.source}, map[int]target{1: {0, 2}})
			r := NewResolver(h, "/proj")

			loc, ok := r.Resolve(1)
			require.True(t, ok)
			assert.Equal(t, tt.want, loc.Path)
			assert.Equal(t, 2, loc.Line)
		})
	}
}

func TestResolver_GeneratedOnlySegment(t *testing.T) {
	h := handle(t, "/proj/dist/app.js.map", "", []string{"../src/app.ts"},
		map[int]target{1: {-1, 0}, 2: {0, 5}})
	r := NewResolver(h, "/proj")

	_, ok := r.Resolve(1)
	assert.False(t, ok)
	_, ok = r.Resolve(2)
	assert.True(t, ok)
}
