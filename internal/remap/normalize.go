package remap

import (
	"regexp"
	"strings"
)

// virtualScheme matches bundler virtual paths such as
// "./webpack:///src/a.ts" or "rollup://pkg/x.js".
var virtualScheme = regexp.MustCompile(`(?i)^(?:\./)?([a-z]*?)://(.*)$`)

// NormalizePath strips a virtual scheme prefix. For schemes other than
// "file" a leading "/" left after the scheme is dropped as well. The rule is
// applied until the path no longer carries a scheme, so normalizing a
// normalized path is a no-op.
func NormalizePath(p string) string {
	for {
		m := virtualScheme.FindStringSubmatch(p)
		if m == nil {
			return p
		}
		scheme, rest := m[1], m[2]
		if scheme != "file" && strings.HasPrefix(rest, "/") {
			rest = rest[1:]
		}
		p = rest
	}
}
