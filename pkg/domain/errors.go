package domain

import (
	"fmt"
	"strings"
)

// PathNotFoundError reports a scan root that does not exist or is not a
// directory. It is the only error that aborts a whole scan.
type PathNotFoundError struct {
	Path string
}

func (e PathNotFoundError) Error() string {
	return fmt.Sprintf("path not found: %s", e.Path)
}

// FormatError reports file content that does not match its expected grammar,
// such as an integral table without a data-section header.
type FormatError struct {
	File   string
	Reason string
}

func (e FormatError) Error() string {
	if e.File == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// MalformedDocumentError reports a peak list that is not well-formed XML.
type MalformedDocumentError struct {
	File string
	Err  error
}

func (e MalformedDocumentError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("malformed document: %v", e.Err)
	}
	return fmt.Sprintf("%s: malformed document: %v", e.File, e.Err)
}

func (e MalformedDocumentError) Unwrap() error { return e.Err }

// MissingAttributeError reports a peak element lacking a required attribute.
type MissingAttributeError struct {
	File      string
	Element   string
	Attribute string
}

func (e MissingAttributeError) Error() string {
	msg := fmt.Sprintf("element %s missing required attribute %q", e.Element, e.Attribute)
	if e.File == "" {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.File, msg)
}

// ParseError reports a parameter file that could not be read or tokenized.
type ParseError struct {
	File string
	Err  error
}

func (e ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("parse: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e ParseError) Unwrap() error { return e.Err }

// Diagnostic records one non-fatal problem encountered during a scan. The
// affected experiment or processed-data folder simply lacks the data the
// failed step would have produced.
type Diagnostic struct {
	Experiment string `json:"experiment,omitempty"`
	ProcData   string `json:"proc_data,omitempty"`
	File       string `json:"file,omitempty"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

// NewDiagnostic builds a diagnostic for the given scope and error.
func NewDiagnostic(experiment, procData, file string, err error) Diagnostic {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Diagnostic{
		Experiment: experiment,
		ProcData:   procData,
		File:       file,
		Message:    msg,
		Err:        err,
	}
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Experiment != "" {
		fmt.Fprintf(&b, "experiment %s", d.Experiment)
	}
	if d.ProcData != "" {
		fmt.Fprintf(&b, " pdata %s", d.ProcData)
	}
	if d.File != "" {
		fmt.Fprintf(&b, " file %s", d.File)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	return strings.TrimSpace(b.String())
}
