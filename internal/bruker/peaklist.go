package bruker

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"nmrcore/pkg/domain"
)

// ParsePeakList extracts every peak element of the requested kind from an
// XML peak-list document, wherever it appears in the tree. Peaks come back
// sorted by descending chemical shift on the leading axis (F2 for 2D, F1
// for 1D). A well-formed document with no peak elements yields an empty
// slice and no error.
func ParsePeakList(r io.Reader, kind domain.PeakKind) ([]domain.Peak, error) {
	target := "Peak2D"
	if kind == domain.Peaks1D {
		target = "Peak1D"
	}

	peaks := []domain.Peak{}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, domain.MalformedDocumentError{Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != target {
			continue
		}
		peak, err := peakFromElement(se, kind)
		if err != nil {
			return nil, err
		}
		peaks = append(peaks, peak)
	}

	sort.SliceStable(peaks, func(i, j int) bool {
		if kind == domain.Peaks2D {
			return peaks[i].F2 > peaks[j].F2
		}
		return peaks[i].F1 > peaks[j].F1
	})
	return peaks, nil
}

// ParsePeakListFile opens and parses a peak-list document, stamping the
// file name onto any parse failure.
func ParsePeakListFile(path string, kind domain.PeakKind) ([]domain.Peak, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ParseError{File: filepath.Base(path), Err: err}
	}
	defer func() { _ = f.Close() }()
	peaks, err := ParsePeakList(f, kind)
	if err != nil {
		return nil, stampFile(err, filepath.Base(path))
	}
	return peaks, nil
}

func peakFromElement(se xml.StartElement, kind domain.PeakKind) (domain.Peak, error) {
	attrs := make(map[string]string, len(se.Attr))
	for _, a := range se.Attr {
		attrs[a.Name.Local] = a.Value
	}

	required := []string{"F1", "intensity", "type"}
	if kind == domain.Peaks2D {
		required = []string{"F1", "F2", "intensity", "type"}
	}
	for _, name := range required {
		if _, ok := attrs[name]; !ok {
			return domain.Peak{}, domain.MissingAttributeError{Element: se.Name.Local, Attribute: name}
		}
	}

	peak := domain.Peak{Annotation: attrs["annotation"]}
	var err error
	if peak.F1, err = attrFloat(se.Name.Local, "F1", attrs); err != nil {
		return domain.Peak{}, err
	}
	if kind == domain.Peaks2D {
		if peak.F2, err = attrFloat(se.Name.Local, "F2", attrs); err != nil {
			return domain.Peak{}, err
		}
	}
	if peak.Intensity, err = attrFloat(se.Name.Local, "intensity", attrs); err != nil {
		return domain.Peak{}, err
	}
	peak.Type, err = attrInt(se.Name.Local, "type", attrs)
	if err != nil {
		return domain.Peak{}, err
	}
	return peak, nil
}

func attrFloat(element, name string, attrs map[string]string) (float64, error) {
	v, err := strconv.ParseFloat(attrs[name], 64)
	if err != nil {
		return 0, domain.FormatError{Reason: fmt.Sprintf("element %s attribute %s: invalid number %q", element, name, attrs[name])}
	}
	return v, nil
}

func attrInt(element, name string, attrs map[string]string) (int, error) {
	v, err := strconv.Atoi(attrs[name])
	if err != nil {
		return 0, domain.FormatError{Reason: fmt.Sprintf("element %s attribute %s: invalid integer %q", element, name, attrs[name])}
	}
	return v, nil
}

// stampFile fills the File field of a typed parse failure so callers see
// which document broke.
func stampFile(err error, file string) error {
	switch e := err.(type) {
	case domain.MalformedDocumentError:
		e.File = file
		return e
	case domain.MissingAttributeError:
		e.File = file
		return e
	case domain.FormatError:
		e.File = file
		return e
	default:
		return domain.ParseError{File: file, Err: err}
	}
}
