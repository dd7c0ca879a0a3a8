package sourcemap

import (
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/zjy-dev/lcov-sourcemap/internal/filereader"
	"github.com/zjy-dev/lcov-sourcemap/internal/logger"
)

// DefaultCacheSize is the number of decoded maps a Loader keeps.
const DefaultCacheSize = 128

// Handle ties a generated file to the map decoded for it.
type Handle struct {
	// Key is the generated path as written in the tracefile.
	Key string
	// Path is the absolute path the map was read from.
	Path     string
	Consumer *Consumer
}

// Loader reads and decodes maps. Several generated files that resolve to the
// same map path share one decoded Consumer. A Loader is safe for concurrent
// use.
type Loader struct {
	fs      afero.Fs
	workDir string
	cache   *lru.Cache[string, *Consumer]
	group   singleflight.Group
}

// NewLoader creates a Loader. Relative map paths are resolved against
// workDir.
func NewLoader(fsys afero.Fs, workDir string, cacheSize int) (*Loader, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, *Consumer](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create source map cache: %w", err)
	}
	return &Loader{fs: fsys, workDir: workDir, cache: cache}, nil
}

// Abs resolves a map path against the loader's working directory.
func (l *Loader) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.workDir, path)
}

// Load reads the map at mapPath for the generated file key. Files without a
// .map extension are treated as generated files carrying an inline map.
func (l *Loader) Load(key, mapPath string) (*Handle, error) {
	abs := l.Abs(mapPath)

	if c, ok := l.cache.Get(abs); ok {
		logger.Debug("source map cache hit: %s", abs)
		return &Handle{Key: key, Path: abs, Consumer: c}, nil
	}

	v, err, _ := l.group.Do(abs, func() (interface{}, error) {
		if c, ok := l.cache.Get(abs); ok {
			return c, nil
		}
		c, err := l.decode(abs)
		if err != nil {
			return nil, err
		}
		l.cache.Add(abs, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return &Handle{Key: key, Path: abs, Consumer: v.(*Consumer)}, nil
}

func (l *Loader) decode(path string) (*Consumer, error) {
	data, err := filereader.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source map %s: %w", path, err)
	}

	if IsInline(path) {
		data, err = ExtractInline(data)
		if err != nil {
			return nil, fmt.Errorf("failed to extract inline source map from %s: %w", path, err)
		}
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode source map %s: %w", path, err)
	}
	logger.Debug("decoded source map %s: %d sources, %d mappings", path, len(c.sources), len(c.mappings))
	return c, nil
}
