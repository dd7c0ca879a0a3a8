package sourcemap

import (
	"path/filepath"
	"strings"
)

// DefaultTemplate locates a sidecar map next to the generated file.
const DefaultTemplate = "{path}.map"

// InlineTemplate points the loader at the generated file itself.
const InlineTemplate = "{path}"

// Locator returns the map file path for a generated file as it appears in
// the tracefile. An empty result means no map exists for it.
type Locator func(generatedPath string) string

// TemplateLocator expands a path template. Supported placeholders:
//
//	{path}  the generated path as given
//	{dir}   its directory
//	{base}  its file name
//	{name}  its file name without extension
//	{ext}   its extension including the dot
func TemplateLocator(template string) Locator {
	if template == "" {
		template = DefaultTemplate
	}
	return func(generatedPath string) string {
		base := filepath.Base(generatedPath)
		ext := filepath.Ext(base)
		r := strings.NewReplacer(
			"{path}", generatedPath,
			"{dir}", filepath.Dir(generatedPath),
			"{base}", base,
			"{name}", strings.TrimSuffix(base, ext),
			"{ext}", ext,
		)
		return r.Replace(template)
	}
}

// IsInline reports whether a map path refers to a generated file carrying an
// inline map rather than a standalone map document.
func IsInline(mapPath string) bool {
	return filepath.Ext(mapPath) != ".map"
}
