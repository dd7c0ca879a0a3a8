package remap

import (
	"errors"
	"fmt"
)

// ErrMissingSourceMap is matched by errors.Is for every MissingSourceMapError.
var ErrMissingSourceMap = errors.New("missing sourcemap")

// MissingSourceMapError reports a generated file from the tracefile for which
// no source map could be found.
type MissingSourceMapError struct {
	// Key is the generated path as written in the tracefile.
	Key string
	// Path is the map path the locator produced, empty if it produced none.
	Path string
	Err  error
}

func (e *MissingSourceMapError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", ErrMissingSourceMap, e.Key)
	}
	return fmt.Sprintf("%v: %s (looked for %s)", ErrMissingSourceMap, e.Key, e.Path)
}

func (e *MissingSourceMapError) Is(target error) bool { return target == ErrMissingSourceMap }

func (e *MissingSourceMapError) Unwrap() error { return e.Err }
