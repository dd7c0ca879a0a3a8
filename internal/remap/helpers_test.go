package remap

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/lcov-sourcemap/internal/sourcemap"
)

func vlq(value int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	var out []byte
	for {
		digit := v & 31
		v >>= 5
		if v > 0 {
			digit |= 32
		}
		out = append(out, alphabet[digit])
		if v == 0 {
			break
		}
	}
	return string(out)
}

// target is an original position: source index and 1-based line.
type target struct {
	src  int
	line int
}

// lineMappings encodes one column-0 segment per generated line. A target
// with src -1 produces a generated-only segment.
func lineMappings(lines map[int]target) string {
	maxLine := 0
	for l := range lines {
		if l > maxLine {
			maxLine = l
		}
	}
	var b strings.Builder
	src, orig := 0, 0
	for gen := 1; gen <= maxLine; gen++ {
		if gen > 1 {
			b.WriteByte(';')
		}
		tg, ok := lines[gen]
		if !ok {
			continue
		}
		if tg.src < 0 {
			b.WriteString("A")
			continue
		}
		b.WriteString("A")
		b.WriteString(vlq(tg.src - src))
		b.WriteString(vlq(tg.line - 1 - orig))
		b.WriteString("A")
		src, orig = tg.src, tg.line-1
	}
	return b.String()
}

type mapDoc struct {
	Version    int      `json:"version"`
	SourceRoot string   `json:"sourceRoot,omitempty"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`
}

func mapJSON(t *testing.T, root string, sources []string, lines map[int]target) []byte {
	t.Helper()
	data, err := json.Marshal(mapDoc{Version: 3, SourceRoot: root, Sources: sources, Names: []string{}, Mappings: lineMappings(lines)})
	require.NoError(t, err)
	return data
}

func handle(t *testing.T, mapPath, root string, sources []string, lines map[int]target) *sourcemap.Handle {
	t.Helper()
	c, err := sourcemap.Parse(mapJSON(t, root, sources, lines))
	require.NoError(t, err)
	return &sourcemap.Handle{Key: "gen.js", Path: mapPath, Consumer: c}
}

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0644))
}
