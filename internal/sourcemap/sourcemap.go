// Package sourcemap decodes Source Map revision 3 documents and answers
// generated-to-original position queries.
package sourcemap

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnsupportedVersion is returned for maps whose version is not 3.
	ErrUnsupportedVersion = errors.New("unsupported source map version")
	// ErrIndexedMap is returned for index maps (maps with "sections").
	ErrIndexedMap = errors.New("indexed source maps are not supported")
	// ErrInvalidJSON is returned when the document is not valid JSON.
	ErrInvalidJSON = errors.New("source map is not valid JSON")
)

// Bias selects which mapping to use when none starts exactly at the
// requested generated position.
type Bias int

const (
	// GreatestLowerBound picks the closest mapping before the position.
	GreatestLowerBound Bias = iota
	// LeastUpperBound picks the closest mapping after the position.
	LeastUpperBound
)

// Position is an original source location. Line is 1-based, Column 0-based.
type Position struct {
	Source string
	Line   int
	Column int
	Name   string
}

// mapping is one decoded segment. Generated lines are 1-based; source and
// name are indexes, -1 when the segment has none.
type mapping struct {
	genLine  int
	genCol   int
	source   int
	origLine int
	origCol  int
	name     int
}

// Consumer holds a decoded source map.
type Consumer struct {
	file       string
	sourceRoot string
	hasRoot    bool
	sources    []string
	names      []string
	mappings   []mapping
}

// xssiPrefix is stripped from the start of a map before decoding.
var xssiPrefix = []byte(")]}'")

// Parse decodes a Source Map v3 JSON document.
func Parse(data []byte) (*Consumer, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, xssiPrefix) {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			data = data[i+1:]
		} else {
			data = nil
		}
	}
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}

	doc := gjson.ParseBytes(data)
	if doc.Get("sections").Exists() {
		return nil, ErrIndexedMap
	}
	if v := doc.Get("version").Int(); v != 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	c := &Consumer{file: doc.Get("file").String()}
	if root := doc.Get("sourceRoot"); root.Exists() && root.Type == gjson.String && root.String() != "" {
		c.sourceRoot = root.String()
		c.hasRoot = true
	}
	for _, s := range doc.Get("sources").Array() {
		if s.Type == gjson.Null {
			c.sources = append(c.sources, "")
			continue
		}
		c.sources = append(c.sources, c.joinRoot(s.String()))
	}
	for _, n := range doc.Get("names").Array() {
		c.names = append(c.names, n.String())
	}

	mappings, err := decodeMappings(doc.Get("mappings").String(), len(c.sources), len(c.names))
	if err != nil {
		return nil, fmt.Errorf("failed to decode mappings: %w", err)
	}
	c.mappings = mappings
	return c, nil
}

// joinRoot prefixes a source with the source root the way browsers and the
// reference decoder do: absolute sources and URLs are left untouched.
func (c *Consumer) joinRoot(source string) string {
	if !c.hasRoot || source == "" {
		return source
	}
	if strings.HasPrefix(source, "/") || strings.Contains(source, "://") {
		return source
	}
	return strings.TrimSuffix(c.sourceRoot, "/") + "/" + source
}

func decodeMappings(s string, nSources, nNames int) ([]mapping, error) {
	var out []mapping
	var col, src, origLine, origCol, name, lineStart int
	line := 1

	sortLine := func() {
		seg := out[lineStart:]
		sort.SliceStable(seg, func(i, j int) bool { return seg[i].genCol < seg[j].genCol })
		lineStart = len(out)
	}

	pos := 0
	for pos < len(s) {
		switch s[pos] {
		case ';':
			sortLine()
			line++
			col = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}

		var fields [5]int
		n := 0
		for pos < len(s) && s[pos] != ',' && s[pos] != ';' {
			if n == len(fields) {
				return nil, fmt.Errorf("segment on line %d has more than 5 fields", line)
			}
			v, next, err := decodeVLQ(s, pos)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			fields[n] = v
			n++
			pos = next
		}

		m := mapping{genLine: line, source: -1, name: -1}
		switch n {
		case 1, 4, 5:
		default:
			return nil, fmt.Errorf("segment on line %d has %d fields", line, n)
		}
		col += fields[0]
		m.genCol = col
		if n >= 4 {
			src += fields[1]
			origLine += fields[2]
			origCol += fields[3]
			if src < 0 || src >= nSources {
				return nil, fmt.Errorf("source index %d out of range on line %d", src, line)
			}
			m.source = src
			m.origLine = origLine + 1
			m.origCol = origCol
		}
		if n == 5 {
			name += fields[4]
			if name < 0 || name >= nNames {
				return nil, fmt.Errorf("name index %d out of range on line %d", name, line)
			}
			m.name = name
		}
		out = append(out, m)
	}
	if len(out) > lineStart {
		sortLine()
	}
	return out, nil
}

// File returns the map's "file" field.
func (c *Consumer) File() string { return c.file }

// SourceRoot returns the declared source root. ok is false when the map has
// no sourceRoot or an empty one.
func (c *Consumer) SourceRoot() (root string, ok bool) {
	return c.sourceRoot, c.hasRoot
}

// Sources returns the map's sources, already joined with the source root.
func (c *Consumer) Sources() []string {
	out := make([]string, len(c.sources))
	copy(out, c.sources)
	return out
}

// MappingCount returns the number of decoded segments.
func (c *Consumer) MappingCount() int { return len(c.mappings) }

// OriginalPositionFor maps a generated position (1-based line, 0-based
// column) to its original position. Only mappings on the same generated line
// are considered. ok is false when no mapping is found or the mapping carries
// no source.
func (c *Consumer) OriginalPositionFor(line, column int, bias Bias) (pos Position, ok bool) {
	before := func(m mapping) bool {
		return m.genLine < line || (m.genLine == line && m.genCol < column)
	}
	atOrBefore := func(m mapping) bool {
		return m.genLine < line || (m.genLine == line && m.genCol <= column)
	}

	var idx int
	switch bias {
	case LeastUpperBound:
		idx = sort.Search(len(c.mappings), func(i int) bool { return !before(c.mappings[i]) })
		if idx == len(c.mappings) {
			return Position{}, false
		}
	case GreatestLowerBound:
		idx = sort.Search(len(c.mappings), func(i int) bool { return !atOrBefore(c.mappings[i]) }) - 1
		if idx < 0 {
			return Position{}, false
		}
		for idx > 0 && c.mappings[idx-1].genLine == c.mappings[idx].genLine &&
			c.mappings[idx-1].genCol == c.mappings[idx].genCol {
			idx--
		}
	default:
		return Position{}, false
	}

	m := c.mappings[idx]
	if m.genLine != line || m.source < 0 {
		return Position{}, false
	}
	source := c.sources[m.source]
	if source == "" {
		return Position{}, false
	}
	pos = Position{Source: source, Line: m.origLine, Column: m.origCol}
	if m.name >= 0 {
		pos.Name = c.names[m.name]
	}
	return pos, true
}
