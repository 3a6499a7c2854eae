package bruker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmrcore/pkg/domain"
)

const peakList2D = `<?xml version="1.0" encoding="UTF-8"?>
<PeakList modified="2023-06-12T10:00:00">
  <PeakList2D>
    <PeakList2DHeader creator="topspin" expNo="10" name="sample" procNo="1">
      <PeakPickDetails>F1 [117.0 .. 136.0] F2 [2.0 .. 8.0]</PeakPickDetails>
    </PeakList2DHeader>
    <Peak2D F1="117.9" F2="7.26" annotation="CHCl3" intensity="1.32" type="0"/>
    <Peak2D F1="135.2" F2="2.50" intensity="0.85" type="0"/>
    <Peak2D F1="128.4" F2="7.26" intensity="0.40" type="0"/>
  </PeakList2D>
</PeakList>
`

func TestParsePeakList2D(t *testing.T) {
	peaks, err := ParsePeakList(strings.NewReader(peakList2D), domain.Peaks2D)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(peaks) != 3 {
		t.Fatalf("len = %d, want 3", len(peaks))
	}

	// Descending F2; the two peaks sharing F2 keep document order.
	wantF1 := []float64{117.9, 128.4, 135.2}
	wantF2 := []float64{7.26, 7.26, 2.50}
	for i := range peaks {
		if peaks[i].F1 != wantF1[i] || peaks[i].F2 != wantF2[i] {
			t.Fatalf("peak[%d] = (%v, %v), want (%v, %v)", i, peaks[i].F1, peaks[i].F2, wantF1[i], wantF2[i])
		}
	}
	if peaks[0].Annotation != "CHCl3" {
		t.Fatalf("annotation = %q, want CHCl3", peaks[0].Annotation)
	}
	if peaks[1].Annotation != "" {
		t.Fatalf("annotation = %q, want empty", peaks[1].Annotation)
	}
	if peaks[0].Intensity != 1.32 || peaks[0].Type != 0 {
		t.Fatalf("peak[0] = %+v, want intensity 1.32 type 0", peaks[0])
	}
}

func TestParsePeakList1D(t *testing.T) {
	input := `<PeakList>
  <PeakList1D>
    <Peak1D F1="2.50" intensity="1.0" type="0"/>
    <Peak1D F1="7.26" intensity="3.2" type="0" annotation="solvent"/>
  </PeakList1D>
</PeakList>`
	peaks, err := ParsePeakList(strings.NewReader(input), domain.Peaks1D)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("len = %d, want 2", len(peaks))
	}
	if peaks[0].F1 != 7.26 || peaks[1].F1 != 2.50 {
		t.Fatalf("order = [%v %v], want descending F1", peaks[0].F1, peaks[1].F1)
	}
	if peaks[0].Annotation != "solvent" {
		t.Fatalf("annotation = %q, want solvent", peaks[0].Annotation)
	}
	if peaks[0].F2 != 0 {
		t.Fatalf("F2 = %v, want 0 for 1D peaks", peaks[0].F2)
	}
}

func TestParsePeakListKindSelectsElements(t *testing.T) {
	input := `<PeakList>
  <Peak1D F1="1.0" intensity="1.0" type="0"/>
  <Peak2D F1="10.0" F2="2.0" intensity="1.0" type="0"/>
</PeakList>`
	peaks, err := ParsePeakList(strings.NewReader(input), domain.Peaks1D)
	if err != nil {
		t.Fatalf("parse 1D: %v", err)
	}
	if len(peaks) != 1 || peaks[0].F1 != 1.0 {
		t.Fatalf("1D peaks = %+v, want single F1=1.0", peaks)
	}

	peaks, err = ParsePeakList(strings.NewReader(input), domain.Peaks2D)
	if err != nil {
		t.Fatalf("parse 2D: %v", err)
	}
	if len(peaks) != 1 || peaks[0].F2 != 2.0 {
		t.Fatalf("2D peaks = %+v, want single F2=2.0", peaks)
	}
}

func TestParsePeakListNoMatches(t *testing.T) {
	peaks, err := ParsePeakList(strings.NewReader(`<PeakList><PeakList2D/></PeakList>`), domain.Peaks2D)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if peaks == nil || len(peaks) != 0 {
		t.Fatalf("peaks = %#v, want empty non-nil slice", peaks)
	}
}

func TestParsePeakListMalformed(t *testing.T) {
	_, err := ParsePeakList(strings.NewReader(`<PeakList><Peak2D F1="1.0"`), domain.Peaks2D)
	var me domain.MalformedDocumentError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v (%T), want MalformedDocumentError", err, err)
	}
}

func TestParsePeakListMissingAttribute(t *testing.T) {
	input := `<PeakList><Peak2D F1="117.9" intensity="1.0" type="0"/></PeakList>`
	_, err := ParsePeakList(strings.NewReader(input), domain.Peaks2D)
	var ma domain.MissingAttributeError
	if !errors.As(err, &ma) {
		t.Fatalf("error = %v (%T), want MissingAttributeError", err, err)
	}
	if ma.Element != "Peak2D" || ma.Attribute != "F2" {
		t.Fatalf("error = %+v, want Peak2D/F2", ma)
	}
}

func TestParsePeakListBadNumber(t *testing.T) {
	input := `<PeakList><Peak2D F1="abc" F2="1.0" intensity="1.0" type="0"/></PeakList>`
	_, err := ParsePeakList(strings.NewReader(input), domain.Peaks2D)
	var fe domain.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v (%T), want FormatError", err, err)
	}
	if !strings.Contains(fe.Reason, "F1") {
		t.Fatalf("Reason = %q, want mention of F1", fe.Reason)
	}
}

func TestParsePeakListFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peaklist.xml")
	if err := os.WriteFile(path, []byte(peakList2D), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	peaks, err := ParsePeakListFile(path, domain.Peaks2D)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if len(peaks) != 3 {
		t.Fatalf("len = %d, want 3", len(peaks))
	}
}

func TestParsePeakListFileStampsName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "peaklist.xml")
	if err := os.WriteFile(path, []byte(`<PeakList><Peak2D`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := ParsePeakListFile(path, domain.Peaks2D)
	var me domain.MalformedDocumentError
	if !errors.As(err, &me) {
		t.Fatalf("error = %v (%T), want MalformedDocumentError", err, err)
	}
	if me.File != "peaklist.xml" {
		t.Fatalf("File = %q, want peaklist.xml", me.File)
	}
}
