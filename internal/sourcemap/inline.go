package sourcemap

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrNoInlineMap is returned when a generated file carries no data URI
// sourceMappingURL comment.
var ErrNoInlineMap = errors.New("no inline source map comment found")

// inlineComment matches //# sourceMappingURL=data:..., the legacy //@ form
// and the /*# ... */ form used in CSS.
var inlineComment = regexp.MustCompile(
	`(?m)^\s*/[/*][@#]\s+sourceMappingURL=data:(?:(?:application|text)/json)?(?:;charset=[^;,]*)?(;base64)?,([^\s*]*)`)

// ExtractInline returns the map document embedded in a generated file. When
// several comments are present the last one wins.
func ExtractInline(content []byte) ([]byte, error) {
	matches := inlineComment.FindAllSubmatch(content, -1)
	if len(matches) == 0 {
		return nil, ErrNoInlineMap
	}
	m := matches[len(matches)-1]
	payload := string(m[2])

	if len(m[1]) > 0 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 source map: %w", err)
		}
		return data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode uri-encoded source map: %w", err)
	}
	return []byte(decoded), nil
}
