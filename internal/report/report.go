// Package report prints the machine-readable result block that follows a
// command's human-readable output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bashhack/gitcheckpoint/internal/errors"
)

const (
	Begin = "--- GITCHECKPOINT_RESULT ---"
	End   = "--- END_GITCHECKPOINT_RESULT ---"
)

// Format selects the encoding of the result block.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatNone Format = "none"
)

// ParseFormat accepts json, yaml or none, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatNone:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", errors.NewConfigError("format", s, errors.New("must be json, yaml or none"))
	}
}

// Result is the structured outcome of one command.
type Result struct {
	Command string `json:"command" yaml:"command"`
	Success bool   `json:"success" yaml:"success"`
	Action  string `json:"action,omitempty" yaml:"action,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
	Data    any    `json:"data,omitempty" yaml:"data,omitempty"`
}

// Write prints the result between the Begin and End marker lines. FormatNone
// writes nothing.
func Write(w io.Writer, format Format, r Result) error {
	var body []byte
	var err error

	switch format {
	case FormatNone:
		return nil
	case FormatYAML:
		body, err = yaml.Marshal(r)
	case FormatJSON, "":
		body, err = json.MarshalIndent(r, "", "  ")
		body = append(body, '\n')
	default:
		return errors.Errorf("unknown result format %q", format)
	}
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}

	_, err = fmt.Fprintf(w, "%s\n%s%s\n", Begin, body, End)
	return err
}

// Extract returns the text between the markers of the last result block in
// output, for callers that drive gitcheckpoint as a subprocess.
func Extract(output string) (string, bool) {
	start := strings.LastIndex(output, Begin)
	if start < 0 {
		return "", false
	}
	rest := output[start+len(Begin):]
	end := strings.Index(rest, End)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
