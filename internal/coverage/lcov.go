package coverage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/zjy-dev/lcov-sourcemap/internal/filereader"
)

// ErrMissingSourceFile is returned for a record that ends without an SF: line.
var ErrMissingSourceFile = errors.New("record has no SF entry")

// ParseError reports a malformed tracefile line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lcov line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseFile reads and parses a tracefile from fsys.
func ParseFile(fsys afero.Fs, path string) ([]*Record, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lcov file: %w", err)
	}
	defer f.Close()

	records, err := Parse(filereader.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}

// pendingFunc is an FN entry waiting for its FNDA line.
type pendingFunc struct {
	FunctionHit
	seen bool
}

// parser holds the state of the record being read.
type parser struct {
	records []*Record
	cur     *Record
	funcs   []pendingFunc
}

func (p *parser) record() *Record {
	if p.cur == nil {
		p.cur = &Record{}
	}
	return p.cur
}

func (p *parser) finish() error {
	if p.cur == nil {
		return nil
	}
	if p.cur.Path == "" {
		return ErrMissingSourceFile
	}
	for _, f := range p.funcs {
		p.cur.AddFunction(f.FunctionHit)
	}
	p.records = append(p.records, p.cur)
	p.cur = nil
	p.funcs = nil
	return nil
}

// Parse reads LCOV tracefile text. Records are returned in input order.
// Summary lines (FNF, LF, BRH, ...) are ignored; totals are recomputed from
// the entries. Unknown lines are skipped.
func Parse(r io.Reader) ([]*Record, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if err := p.line(text); err != nil {
			return nil, &ParseError{Line: lineNo, Text: text, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lcov data: %w", err)
	}
	// Accept a final record that lacks end_of_record.
	if err := p.finish(); err != nil {
		return nil, &ParseError{Line: lineNo, Err: err}
	}
	return p.records, nil
}

func (p *parser) line(text string) error {
	if text == "end_of_record" {
		return p.finish()
	}

	key, value, ok := strings.Cut(text, ":")
	if !ok {
		return nil
	}

	switch key {
	case "TN":
		p.record().TestName = value
	case "SF":
		p.record().Path = value
	case "FN":
		f, err := parseFN(value)
		if err != nil {
			return err
		}
		p.record()
		p.funcs = append(p.funcs, pendingFunc{FunctionHit: f})
	case "FNDA":
		hitStr, name, ok := strings.Cut(value, ",")
		if !ok {
			return fmt.Errorf("expected <hit>,<name>")
		}
		hit, err := atoi(hitStr)
		if err != nil {
			return err
		}
		p.record()
		for i := range p.funcs {
			if p.funcs[i].Name == name && !p.funcs[i].seen {
				p.funcs[i].Hit = hit
				p.funcs[i].seen = true
				break
			}
		}
	case "DA":
		parts := strings.SplitN(value, ",", 3)
		if len(parts) < 2 {
			return fmt.Errorf("expected <line>,<hit>")
		}
		line, err := atoi(parts[0])
		if err != nil {
			return err
		}
		hit, err := atoi(parts[1])
		if err != nil {
			return err
		}
		l := LineHit{Line: line, Hit: hit}
		if len(parts) == 3 {
			l.Checksum = parts[2]
		}
		p.record().AddLine(l)
	case "BRDA":
		parts := strings.Split(value, ",")
		if len(parts) != 4 {
			return fmt.Errorf("expected <line>,<block>,<branch>,<taken>")
		}
		var nums [3]int
		for i := range nums {
			n, err := atoi(parts[i])
			if err != nil {
				return err
			}
			nums[i] = n
		}
		taken := 0
		if parts[3] != "-" {
			n, err := atoi(parts[3])
			if err != nil {
				return err
			}
			taken = n
		}
		p.record().AddBranch(BranchHit{Line: nums[0], Block: nums[1], Branch: nums[2], Taken: taken})
	}
	return nil
}

// parseFN accepts both FN:<line>,<name> and FN:<line>,<end>,<name>.
func parseFN(value string) (FunctionHit, error) {
	lineStr, rest, ok := strings.Cut(value, ",")
	if !ok {
		return FunctionHit{}, fmt.Errorf("expected <line>,<name>")
	}
	line, err := atoi(lineStr)
	if err != nil {
		return FunctionHit{}, err
	}
	if endStr, name, ok := strings.Cut(rest, ","); ok {
		if _, err := strconv.Atoi(endStr); err == nil && name != "" {
			rest = name
		}
	}
	return FunctionHit{Line: line, Name: rest}, nil
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}
