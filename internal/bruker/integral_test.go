package bruker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmrcore/pkg/domain"
)

const int2dFixture = ` Integrals of 2D spectrum

 #   SI_F1  f1_start  f1_end  ppm_start  ppm_end  abs_intensity  integral  mode
 0 1024 433 445 8.000 6.000 12345.625 1.500 m
 1024 210 220 120.25 115.75
 1 1024 500 510 3.5 2.5 2345.25 0.5 m
 1024 300 310 137.5 132.5
`

func TestParseIntegrals(t *testing.T) {
	integrals, err := ParseIntegrals(strings.NewReader(int2dFixture))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(integrals) != 2 {
		t.Fatalf("len = %d, want 2", len(integrals))
	}

	// Descending dimension-2 center: record 1 (135.0) before record 0 (118.0).
	first, second := integrals[0], integrals[1]
	if first.Index != 1 || first.Center2 != 135.0 || first.Center1 != 3.0 {
		t.Fatalf("first = %+v, want index 1 centers (3, 135)", first)
	}
	if second.Index != 0 || second.Center2 != 118.0 || second.Center1 != 7.0 {
		t.Fatalf("second = %+v, want index 0 centers (7, 118)", second)
	}

	if second.Dim1Size != 1024 || second.RowStart != 433 || second.RowEnd != 445 {
		t.Fatalf("row fields = %+v, want 1024/433/445", second)
	}
	if second.RowStartPPM != 8.0 || second.RowEndPPM != 6.0 {
		t.Fatalf("row ppm = (%v, %v), want (8, 6)", second.RowStartPPM, second.RowEndPPM)
	}
	if second.Dim2Size != 1024 || second.ColStart != 210 || second.ColEnd != 220 {
		t.Fatalf("col fields = %+v, want 1024/210/220", second)
	}
	if second.AbsIntensity != 12345.625 || second.Value != 1.5 || second.Mode != "m" {
		t.Fatalf("record = %+v, want abs 12345.625 integral 1.5 mode m", second)
	}
}

func TestParseIntegralsMissingHeader(t *testing.T) {
	_, err := ParseIntegrals(strings.NewReader("just some text\nwith no marker\n"))
	var fe domain.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v (%T), want FormatError", err, err)
	}
	if fe.Reason != "could not locate data section" {
		t.Fatalf("Reason = %q", fe.Reason)
	}
}

func TestParseIntegralsEmptySection(t *testing.T) {
	integrals, err := ParseIntegrals(strings.NewReader(" # SI_F1 header\n\n\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if integrals == nil || len(integrals) != 0 {
		t.Fatalf("integrals = %#v, want empty non-nil slice", integrals)
	}
}

func TestParseIntegralsUnpairedPrimaryDropped(t *testing.T) {
	input := ` # SI_F1 header
0 1024 433 445 8.0 6.0 1.0 1.0 m
not a secondary line
2 1024 100 110 5.0 4.0 2.0 2.0 m
1024 50 60 60.0 50.0
`
	integrals, err := ParseIntegrals(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(integrals) != 1 {
		t.Fatalf("len = %d, want 1", len(integrals))
	}
	if integrals[0].Index != 2 || integrals[0].Center2 != 55.0 {
		t.Fatalf("record = %+v, want index 2 center2 55", integrals[0])
	}
}

func TestParseIntegralsRescansFailedSecondaryAsPrimary(t *testing.T) {
	input := ` # SI_F1 header
0 1024 1 2 9.0 7.0 1.0 1.0 m
3 1024 5 6 4.0 2.0 1.5 0.5 m
1024 10 20 30.0 20.0
`
	integrals, err := ParseIntegrals(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(integrals) != 1 {
		t.Fatalf("len = %d, want 1 (%+v)", len(integrals), integrals)
	}
	if integrals[0].Index != 3 || integrals[0].Center1 != 3.0 || integrals[0].Center2 != 25.0 {
		t.Fatalf("record = %+v, want index 3 centers (3, 25)", integrals[0])
	}
}

func TestParseIntegralsStableOnCenterTies(t *testing.T) {
	input := ` # SI_F1 header
0 1024 1 2 2.0 1.0 1.0 1.0 m
1024 10 20 50.0 40.0
1 1024 3 4 6.0 5.0 1.0 1.0 m
1024 30 40 55.0 35.0
`
	integrals, err := ParseIntegrals(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(integrals) != 2 {
		t.Fatalf("len = %d, want 2", len(integrals))
	}
	if integrals[0].Index != 0 || integrals[1].Index != 1 {
		t.Fatalf("order = [%d %d], want input order on equal centers", integrals[0].Index, integrals[1].Index)
	}
}

func TestParseIntegralsSkipsUnconvertibleLines(t *testing.T) {
	input := ` # SI_F1 header
0 1024 43x 445 8.0 6.0 1.0 1.0 m
1 1024 1 2 3.0 1.0 1.0 1.0 m
1024 5 6 20.0 10.0
`
	integrals, err := ParseIntegrals(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(integrals) != 1 || integrals[0].Index != 1 {
		t.Fatalf("integrals = %+v, want single record index 1", integrals)
	}
}

func TestParseIntegralFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "int2d")
	if err := os.WriteFile(path, []byte(int2dFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	integrals, err := ParseIntegralFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if len(integrals) != 2 {
		t.Fatalf("len = %d, want 2", len(integrals))
	}
}

func TestParseIntegralFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseIntegralFile(filepath.Join(dir, "int2d"))
	var pe domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v (%T), want ParseError", err, err)
	}

	path := filepath.Join(dir, "int2d")
	if err := os.WriteFile(path, []byte("no header here\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err = ParseIntegralFile(path)
	var fe domain.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v (%T), want FormatError", err, err)
	}
	if fe.File != "int2d" {
		t.Fatalf("File = %q, want int2d", fe.File)
	}
}
