package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDirectoryPreservesInsertionOrder(t *testing.T) {
	dir := NewDirectory("/data/run1")
	for _, id := range []string{"10", "2", "1"} {
		dir.Add(&Experiment{ID: id})
	}
	got := dir.IDs()
	if len(got) != 3 || got[0] != "10" || got[1] != "2" || got[2] != "1" {
		t.Fatalf("IDs = %v, want [10 2 1]", got)
	}
	if dir.Len() != 3 {
		t.Fatalf("Len = %d, want 3", dir.Len())
	}
}

func TestDirectoryReplaceKeepsSlot(t *testing.T) {
	dir := NewDirectory("/data/run1")
	dir.Add(&Experiment{ID: "1", Type: TypeUnknown})
	dir.Add(&Experiment{ID: "2"})
	dir.Add(&Experiment{ID: "1", Type: TypeH1_1D})
	if got := dir.IDs(); len(got) != 2 || got[0] != "1" {
		t.Fatalf("IDs after replace = %v", got)
	}
	exp, ok := dir.Get("1")
	if !ok || exp.Type != TypeH1_1D {
		t.Fatalf("Get(1) = (%v, %v)", exp, ok)
	}
}

func TestExperimentPeakFolders(t *testing.T) {
	exp := &Experiment{
		ID: "3",
		ProcData: []ProcessedData{
			{ID: "1", HasPeaks: true},
			{ID: "2"},
			{ID: "1001", HasPeaks: true},
		},
	}
	got := exp.PeakFolders()
	if len(got) != 2 || got[0] != "1" || got[1] != "1001" {
		t.Fatalf("PeakFolders = %v, want [1 1001]", got)
	}
}

func TestDirectoryMarshalOrdersExperiments(t *testing.T) {
	dir := NewDirectory("/data/run1")
	dir.Add(&Experiment{ID: "20", Nuclei: []string{"1H"}})
	dir.Add(&Experiment{ID: "3", Nuclei: []string{"13C"}})
	data, err := json.Marshal(dir)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, `"root":"/data/run1"`) {
		t.Errorf("missing root in %s", s)
	}
	if strings.Index(s, `"id":"20"`) > strings.Index(s, `"id":"3"`) {
		t.Errorf("experiment order not preserved: %s", s)
	}
}

func TestDiagnosticString(t *testing.T) {
	diag := NewDiagnostic("12", "1", "peaklist.xml", MalformedDocumentError{Err: errors.New("unexpected EOF")})
	s := diag.String()
	for _, want := range []string{"experiment 12", "pdata 1", "peaklist.xml", "unexpected EOF"} {
		if !strings.Contains(s, want) {
			t.Errorf("diagnostic %q missing %q", s, want)
		}
	}
}

func TestErrorTypesUnwrap(t *testing.T) {
	inner := errors.New("boom")
	var parseErr error = ParseError{File: "acqu", Err: inner}
	if !errors.Is(parseErr, inner) {
		t.Error("ParseError should unwrap to inner error")
	}
	var malformed error = MalformedDocumentError{File: "peaklist.xml", Err: inner}
	if !errors.Is(malformed, inner) {
		t.Error("MalformedDocumentError should unwrap to inner error")
	}
	var target MissingAttributeError
	err := func() error {
		return MissingAttributeError{Element: "Peak2D", Attribute: "F1"}
	}()
	if !errors.As(err, &target) || target.Attribute != "F1" {
		t.Errorf("errors.As failed: %v", err)
	}
}
