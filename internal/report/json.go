package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"
)

// JSONReporter writes the summary as indented JSON.
type JSONReporter struct{}

func (r *JSONReporter) Write(w io.Writer, s *Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if _, err := w.Write(pretty.Pretty(data)); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
