package blockdupes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Reporter receives each cohort's duplicate groups as soon as they are confirmed
type Reporter interface {
	ReportGroups(groups []DuplicateGroup) error
}

// ReporterFunc adapts a function to the Reporter interface
type ReporterFunc func(groups []DuplicateGroup) error

// ReportGroups calls f(groups)
func (f ReporterFunc) ReportGroups(groups []DuplicateGroup) error {
	return f(groups)
}

// NewReporter returns a reporter writing the named format to w
func NewReporter(format string, w io.Writer) (Reporter, error) {
	if err := ValidateOutputFormat(format); err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case FormatFdupes:
		return &textReporter{w: w, withSize: false}, nil
	case FormatJSON:
		return &jsonReporter{enc: json.NewEncoder(w)}, nil
	case FormatYAML:
		return &yamlReporter{w: w}, nil
	default:
		return &textReporter{w: w, withSize: true}, nil
	}
}

// textReporter writes one member per line, each group followed by a blank line.
// The human format appends the size to every path; the fdupes format does not.
type textReporter struct {
	w        io.Writer
	withSize bool
}

func (r *textReporter) ReportGroups(groups []DuplicateGroup) error {
	if len(groups) == 0 {
		return nil
	}

	lines := make([][]byte, 0, len(groups)*4)
	for _, group := range groups {
		for _, file := range group.Files {
			line := make([]byte, 0, len(file)+22)
			line = append(line, file...)
			if r.withSize {
				line = append(line, ' ')
				line = strconv.AppendInt(line, group.Size, 10)
			}
			line = append(line, '\n')
			lines = append(lines, line)
		}
		lines = append(lines, []byte{'\n'})
	}

	if IsDebugEnabled(DebugReport) {
		VerboseLog(3, "report: writing %d groups as %d lines", len(groups), len(lines))
	}

	if file, ok := r.w.(*os.File); ok {
		return writeLines(file, lines)
	}
	if _, err := r.w.Write(bytes.Join(lines, nil)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// jsonReporter writes one JSON object per group per line
type jsonReporter struct {
	enc *json.Encoder
}

func (r *jsonReporter) ReportGroups(groups []DuplicateGroup) error {
	for _, group := range groups {
		if err := r.enc.Encode(group); err != nil {
			return fmt.Errorf("failed to encode group: %w", err)
		}
	}
	return nil
}

// yamlReporter writes one YAML document per group
type yamlReporter struct {
	w io.Writer
}

func (r *yamlReporter) ReportGroups(groups []DuplicateGroup) error {
	for _, group := range groups {
		var buf bytes.Buffer
		buf.WriteString("---\n")
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(group); err != nil {
			return fmt.Errorf("failed to encode group: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode group: %w", err)
		}
		if _, err := r.w.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
