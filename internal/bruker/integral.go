package bruker

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"nmrcore/pkg/domain"
)

// ParseIntegrals reads a 2D integral table. Records are two lines each: a
// dimension-1 row line followed by a dimension-2 column line. The returned
// slice is sorted by descending dimension-2 center ppm; a table whose data
// section holds no records yields an empty slice and no error.
func ParseIntegrals(r io.Reader) ([]domain.Integral, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.ToValidUTF8(string(data), ""), "\n")

	start := -1
	for i, line := range lines {
		if strings.Contains(line, "#") && strings.Contains(line, "SI_F1") {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, domain.FormatError{Reason: "could not locate data section"}
	}

	integrals := []domain.Integral{}
	i := start
	for i < len(lines) {
		rec, ok := parsePrimaryLine(strings.Fields(lines[i]))
		if !ok {
			i++
			continue
		}
		if i+1 < len(lines) && parseSecondaryLine(strings.Fields(lines[i+1]), &rec) {
			rec.Center1 = (rec.RowStartPPM + rec.RowEndPPM) / 2
			rec.Center2 = (rec.ColStartPPM + rec.ColEndPPM) / 2
			integrals = append(integrals, rec)
			i += 2
			continue
		}
		// Unpaired primary: drop it and rescan from the line that failed
		// the secondary pattern. The cursor never moves backwards.
		i++
	}

	sort.SliceStable(integrals, func(a, b int) bool {
		return integrals[a].Center2 > integrals[b].Center2
	})
	return integrals, nil
}

// ParseIntegralFile opens and parses an integral table, stamping the file
// name onto any parse failure.
func ParseIntegralFile(path string) ([]domain.Integral, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ParseError{File: filepath.Base(path), Err: err}
	}
	defer func() { _ = f.Close() }()
	integrals, err := ParseIntegrals(f)
	if err != nil {
		return nil, stampFile(err, filepath.Base(path))
	}
	return integrals, nil
}

// parsePrimaryLine recognizes a dimension-1 line: at least nine fields, an
// unsigned record number and the fixed spectral size 1024. A line whose
// surface shape matches but whose fields do not convert is not a primary.
func parsePrimaryLine(parts []string) (domain.Integral, bool) {
	if len(parts) < 9 || !allDigits(parts[0]) || parts[1] != "1024" {
		return domain.Integral{}, false
	}
	var (
		rec domain.Integral
		err error
	)
	if rec.Index, err = strconv.Atoi(parts[0]); err != nil {
		return domain.Integral{}, false
	}
	if rec.Dim1Size, err = strconv.Atoi(parts[1]); err != nil {
		return domain.Integral{}, false
	}
	if rec.RowStart, err = strconv.Atoi(parts[2]); err != nil {
		return domain.Integral{}, false
	}
	if rec.RowEnd, err = strconv.Atoi(parts[3]); err != nil {
		return domain.Integral{}, false
	}
	if rec.RowStartPPM, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return domain.Integral{}, false
	}
	if rec.RowEndPPM, err = strconv.ParseFloat(parts[5], 64); err != nil {
		return domain.Integral{}, false
	}
	if rec.AbsIntensity, err = strconv.ParseFloat(parts[6], 64); err != nil {
		return domain.Integral{}, false
	}
	if rec.Value, err = strconv.ParseFloat(parts[7], 64); err != nil {
		return domain.Integral{}, false
	}
	rec.Mode = parts[8]
	return rec, true
}

// parseSecondaryLine recognizes the dimension-2 line that completes a
// record: at least five fields starting with the spectral size 1024.
func parseSecondaryLine(parts []string, rec *domain.Integral) bool {
	if len(parts) < 5 || parts[0] != "1024" {
		return false
	}
	var err error
	if rec.Dim2Size, err = strconv.Atoi(parts[0]); err != nil {
		return false
	}
	if rec.ColStart, err = strconv.Atoi(parts[1]); err != nil {
		return false
	}
	if rec.ColEnd, err = strconv.Atoi(parts[2]); err != nil {
		return false
	}
	if rec.ColStartPPM, err = strconv.ParseFloat(parts[3], 64); err != nil {
		return false
	}
	if rec.ColEndPPM, err = strconv.ParseFloat(parts[4], 64); err != nil {
		return false
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
