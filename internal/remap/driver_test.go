package remap

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjy-dev/lcov-sourcemap/internal/coverage"
	"github.com/zjy-dev/lcov-sourcemap/internal/sourcemap"
)

const appTrace = `TN:
SF:dist/app.js
FN:10,main
FNDA:3,main
DA:10,3
end_of_record
`

// newProject lays out /proj with dist/app.js.map pointing line 10 at
// src/app.ts line 4.
func newProject(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/proj/coverage/lcov.info", appTrace)
	writeFile(t, fsys, "/proj/dist/app.js.map", string(mapJSON(t, "", []string{"../src/app.ts"}, map[int]target{10: {0, 4}})))
	writeFile(t, fsys, "/proj/src/app.ts", "export function main() {}\n")
	return fsys
}

func options(fsys afero.Fs) Options {
	return Options{
		Fs:        fsys,
		Lcov:      "coverage/lcov.info",
		SourceDir: "/proj",
		WorkDir:   "/proj",
	}
}

func TestGetLcov_SingleFile(t *testing.T) {
	out, err := GetLcov(context.Background(), options(newProject(t)))
	require.NoError(t, err)

	want := "TN:\nSF:./src/app.ts\nFN:4,main\nFNF:1\nFNH:3\nFNDA:3,main\nDA:4,3\nLF:1\nLH:3\nBRF:0\nBRH:0\nend_of_record"
	assert.Equal(t, want, out)
}

func TestProcess_Stats(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/coverage/lcov.info", strings.Replace(appTrace, "DA:10,3\n", "DA:10,3\nDA:11,1\n", 1))

	res, err := Process(context.Background(), options(fsys))
	require.NoError(t, err)

	assert.Equal(t, Stats{
		GeneratedFiles: 1,
		Entries:        3,
		Resolved:       2,
		Dropped:        1,
		OriginalFiles:  1,
		Written:        1,
	}, res.Stats)
	assert.NotContains(t, res.Output, "DA:11")
}

func TestGetLcov_MissingSourceMap(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/coverage/lcov.info", appTrace+"SF:dist/b.js\nDA:1,1\nend_of_record\n")

	out, err := GetLcov(context.Background(), options(fsys))
	require.Error(t, err)
	assert.Empty(t, out)
	assert.ErrorIs(t, err, ErrMissingSourceMap)

	var missing *MissingSourceMapError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "dist/b.js", missing.Key)
	assert.Equal(t, "dist/b.js.map", missing.Path)
	assert.Contains(t, err.Error(), "dist/b.js")
}

func TestGetLcov_LocatorReturnsNothing(t *testing.T) {
	opts := options(newProject(t))
	opts.Locator = func(string) string { return "" }

	_, err := GetLcov(context.Background(), opts)
	assert.ErrorIs(t, err, ErrMissingSourceMap)
}

func TestGetLcov_UndecodableMap(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/dist/app.js.map", `{"version":2,"sources":[],"mappings":""}`)

	_, err := GetLcov(context.Background(), options(fsys))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingSourceMap)
	assert.ErrorIs(t, err, sourcemap.ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), "dist/app.js")
}

func TestGetLcov_MissingTracefile(t *testing.T) {
	opts := options(afero.NewMemMapFs())

	_, err := GetLcov(context.Background(), opts)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingSourceMap)
}

func TestGetLcov_MalformedTracefile(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/coverage/lcov.info", "SF:dist/app.js\nDA:x,1\nend_of_record\n")

	_, err := GetLcov(context.Background(), options(fsys))
	var perr *coverage.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Line)
}

func TestGetLcov_ExcludesMissingOriginal(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/dist/app.js.map",
		string(mapJSON(t, "", []string{"../src/app.ts", "../src/ghost.ts"}, map[int]target{10: {0, 4}, 11: {1, 1}})))
	writeFile(t, fsys, "/proj/coverage/lcov.info", strings.Replace(appTrace, "DA:10,3\n", "DA:10,3\nDA:11,7\n", 1))

	res, err := Process(context.Background(), options(fsys))
	require.NoError(t, err)

	assert.NotContains(t, res.Output, "ghost.ts")
	assert.Contains(t, res.Output, "SF:./src/app.ts")
	assert.Equal(t, []string{"./src/ghost.ts"}, res.Stats.Excluded)
	assert.Equal(t, 2, res.Stats.OriginalFiles)
	assert.Equal(t, 1, res.Stats.Written)

	// The table still holds the excluded record.
	_, ok := res.Table.Get("./src/ghost.ts")
	assert.True(t, ok)
}

func TestGetLcov_MergesAcrossGeneratedFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "/proj/lcov.info", `SF:dist/a.js
DA:1,2
end_of_record
SF:dist/b.js
DA:1,5
DA:2,1
end_of_record
`)
	writeFile(t, fsys, "/proj/dist/a.js.map", string(mapJSON(t, "", []string{"../src/shared.ts"}, map[int]target{1: {0, 3}})))
	writeFile(t, fsys, "/proj/dist/b.js.map",
		string(mapJSON(t, "", []string{"../src/b.ts", "../src/shared.ts"}, map[int]target{1: {1, 3}, 2: {0, 1}})))
	writeFile(t, fsys, "/proj/src/shared.ts", "")
	writeFile(t, fsys, "/proj/src/b.ts", "")

	opts := options(fsys)
	opts.Lcov = "lcov.info"
	res, err := Process(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"./src/shared.ts", "./src/b.ts"}, res.Table.Paths())
	shared, _ := res.Table.Get("./src/shared.ts")
	assert.Equal(t, []coverage.LineHit{{Line: 3, Hit: 2}, {Line: 3, Hit: 5}}, shared.Lines.Details())

	want := "TN:\nSF:./src/shared.ts\nFNF:0\nFNH:0\nDA:3,2\nDA:3,5\nLF:2\nLH:7\nBRF:0\nBRH:0\nend_of_record\n" +
		"TN:\nSF:./src/b.ts\nFNF:0\nFNH:0\nDA:1,1\nLF:1\nLH:1\nBRF:0\nBRH:0\nend_of_record"
	assert.Equal(t, want, res.Output)
}

func TestGetLcov_GeneratedFilesShareMap(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/coverage/lcov.info", appTrace+"SF:dist/app.min.js\nDA:10,2\nend_of_record\n")

	opts := options(fsys)
	opts.Locator = func(string) string { return "dist/app.js.map" }
	res, err := Process(context.Background(), opts)
	require.NoError(t, err)

	app, _ := res.Table.Get("./src/app.ts")
	assert.Equal(t, 5, app.Lines.Hit())
	assert.Equal(t, 2, res.Stats.GeneratedFiles)
}

func TestGetLcov_SourceRoot(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/dist/app.js.map", string(mapJSON(t, "src/", []string{"app.ts"}, map[int]target{10: {0, 4}})))

	opts := options(fsys)
	opts.SourceDir = "/proj/src"
	out, err := GetLcov(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "TN:\nSF:./app.ts\n"), out)
}

func TestGetLcov_VirtualScheme(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/dist/app.js.map",
		string(mapJSON(t, "build/", []string{"webpack:///src/app.ts"}, map[int]target{10: {0, 4}})))

	res, err := Process(context.Background(), options(fsys))
	require.NoError(t, err)

	assert.Equal(t, []string{"webpack:///src/app.ts"}, res.Table.Paths())
	assert.True(t, strings.HasPrefix(res.Output, "TN:\nSF:src/app.ts\n"), res.Output)
}

func TestGetLcov_InlineMap(t *testing.T) {
	fsys := newProject(t)
	require.NoError(t, fsys.Remove("/proj/dist/app.js.map"))
	doc := mapJSON(t, "", []string{"../src/app.ts"}, map[int]target{10: {0, 4}})
	writeFile(t, fsys, "/proj/dist/app.js", "console.log(1)\n//# sourceMappingURL=data:application/json;base64,"+
		base64.StdEncoding.EncodeToString(doc)+"\n")

	opts := options(fsys)
	opts.Locator = sourcemap.TemplateLocator(sourcemap.InlineTemplate)
	out, err := GetLcov(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, out, "SF:./src/app.ts\nFN:4,main\n")
}

func TestGetLcov_DuplicateKeyUsesLastRecord(t *testing.T) {
	fsys := newProject(t)
	writeFile(t, fsys, "/proj/coverage/lcov.info", appTrace+"SF:dist/app.js\nDA:10,9\nend_of_record\n")

	res, err := Process(context.Background(), options(fsys))
	require.NoError(t, err)

	app, _ := res.Table.Get("./src/app.ts")
	assert.Equal(t, []coverage.LineHit{{Line: 4, Hit: 9}}, app.Lines.Details())
	assert.Equal(t, 0, app.Functions.Len())
	assert.Equal(t, 1, res.Stats.GeneratedFiles)
}

func TestWriteLcov(t *testing.T) {
	fsys := newProject(t)

	res, err := WriteLcov(context.Background(), options(fsys), "out/remapped/lcov.info")
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "/proj/out/remapped/lcov.info")
	require.NoError(t, err)
	assert.Equal(t, res.Output, string(data))
}

func TestWriteLcov_NothingWrittenOnError(t *testing.T) {
	fsys := newProject(t)
	require.NoError(t, fsys.Remove("/proj/dist/app.js.map"))

	_, err := WriteLcov(context.Background(), options(fsys), "/proj/out/lcov.info")
	require.ErrorIs(t, err, ErrMissingSourceMap)

	exists, err := afero.Exists(fsys, "/proj/out/lcov.info")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewDriver_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		errMsg string
	}{
		{"missing lcov", func(o *Options) { o.Lcov = "" }, "lcov path is required"},
		{"relative source dir", func(o *Options) { o.SourceDir = "src" }, "source directory must be an absolute path"},
		{"empty work dir", func(o *Options) { o.WorkDir = "" }, "work directory must be an absolute path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := options(afero.NewMemMapFs())
			tt.modify(&opts)
			_, err := NewDriver(opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewDriver_Defaults(t *testing.T) {
	d, err := NewDriver(Options{Lcov: "x.info", SourceDir: "/a", WorkDir: "/a"})
	require.NoError(t, err)
	assert.NotNil(t, d.opts.Fs)
	assert.NotNil(t, d.opts.Locator)
	assert.Equal(t, DefaultConcurrency, d.opts.Concurrency)
	assert.Equal(t, "lib/x.js.map", d.opts.Locator("lib/x.js"))
}
