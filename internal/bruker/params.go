// Package bruker parses the vendor file formats found inside Bruker
// experiment folders: JCAMP-style parameter files, peak-list XML documents
// and fixed-format 2D integral tables.
package bruker

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"nmrcore/pkg/domain"
)

var (
	definitionPattern = regexp.MustCompile(`^##\$([^=]+)=\s*(.*)$`)
	rangeSuffix       = regexp.MustCompile(`^\(\d+\.\.\d+\)$`)
)

// ParseParameters reads one parameter file into a set. Invalid byte
// sequences are dropped rather than failing the parse; a later definition
// of an already-seen name overwrites the earlier one.
func ParseParameters(r io.Reader) (domain.ParameterSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ToValidUTF8(string(data), ""), "\n")
	params := make(domain.ParameterSet)

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if skipLine(line) {
			i++
			continue
		}
		if strings.HasPrefix(line, "##$") {
			name, value, next := parseDefinition(lines, i)
			if name != "" {
				params[name] = value
			}
			i = next
			continue
		}
		i++
	}
	return params, nil
}

// ParseParameterFile opens and parses a parameter file, wrapping failures
// as a ParseError carrying the file name.
func ParseParameterFile(path string) (domain.ParameterSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ParseError{File: filepath.Base(path), Err: err}
	}
	defer func() { _ = f.Close() }()
	params, err := ParseParameters(f)
	if err != nil {
		return nil, domain.ParseError{File: filepath.Base(path), Err: err}
	}
	return params, nil
}

// Timestamp comments, the end marker and blank lines carry no parameters.
func skipLine(line string) bool {
	return line == "" || strings.HasPrefix(line, "$$") || strings.HasPrefix(line, "##END")
}

// parseDefinition consumes one ##$NAME=value definition starting at lines
// [start] and returns the parameter name, its value and the index of the
// next unconsumed line. Array definitions span continuation lines; the
// terminating line is left for the caller to re-examine.
func parseDefinition(lines []string, start int) (string, domain.Value, int) {
	m := definitionPattern.FindStringSubmatch(strings.TrimSpace(lines[start]))
	if m == nil {
		return "", domain.Value{}, start + 1
	}
	name, remainder := m[1], strings.TrimSpace(m[2])

	// NAME(0..7)= v v v: the range suffix on the name marks an array whose
	// tokens start on the definition line itself.
	if idx := strings.Index(name, "("); idx > 0 && strings.Contains(name, ")") {
		values, next := collectArray(lines, start, remainder)
		return strings.TrimSpace(name[:idx]), domain.ListValue(values), next
	}

	// NAME= (0..7): the range lives in the value and every token is on the
	// continuation lines.
	if rangeSuffix.MatchString(remainder) {
		values, next := collectArray(lines, start, "")
		return name, domain.ListValue(values), next
	}

	return name, convertToken(remainder), start + 1
}

// collectArray tokenizes initial plus all continuation lines until the next
// directive (##) or a blank line, converting each token independently.
func collectArray(lines []string, start int, initial string) ([]domain.Value, int) {
	var values []domain.Value
	for _, tok := range strings.Fields(initial) {
		values = append(values, convertToken(tok))
	}
	i := start + 1
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "##") {
			break
		}
		for _, tok := range strings.Fields(line) {
			values = append(values, convertToken(tok))
		}
		i++
	}
	return values, i
}

// convertToken applies the value grammar: <...> strips to a string, yes/no
// become booleans, then integer, then float, then the raw token.
func convertToken(tok string) domain.Value {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return domain.StringValue("")
	}
	if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") && len(tok) >= 2 {
		return domain.StringValue(tok[1 : len(tok)-1])
	}
	switch strings.ToLower(tok) {
	case "yes":
		return domain.BoolValue(true)
	case "no":
		return domain.BoolValue(false)
	}
	if !strings.ContainsAny(tok, ".eE") {
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return domain.IntValue(n)
		}
	} else if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return domain.FloatValue(f)
	}
	return domain.StringValue(tok)
}
