package domain

import "encoding/json"

// ProcessedData is one numbered reprocessing (pdata/<n>) of an acquisition.
// Peaks and Integrals are nil when the corresponding file was absent or
// unparseable, and empty (non-nil) when parsed with zero records.
type ProcessedData struct {
	ID           string                  `json:"id"`
	Path         string                  `json:"path"`
	Parameters   map[string]ParameterSet `json:"parameters,omitempty"`
	Peaks        []Peak                  `json:"peaks,omitempty"`
	Integrals    []Integral              `json:"integrals,omitempty"`
	HasPeaks     bool                    `json:"has_peaks"`
	HasIntegrals bool                    `json:"has_integrals"`
}

// Experiment is one spectrometer acquisition folder. Parameters are keyed
// by acquisition file name (acqu, acqus, acqu2, ...). ProcData children are
// ordered by ascending numeric folder name.
type Experiment struct {
	ID           string                  `json:"id"`
	Path         string                  `json:"path"`
	Dims         int                     `json:"dims"`
	Nuclei       []string                `json:"nuclei"`
	PulseProgram string                  `json:"pulse_program"`
	Type         ExperimentType          `json:"type"`
	HasPeaks     bool                    `json:"has_peaks"`
	HasIntegrals bool                    `json:"has_integrals"`
	Parameters   map[string]ParameterSet `json:"parameters,omitempty"`
	ProcData     []ProcessedData         `json:"proc_data,omitempty"`
}

// PeakFolders lists the processed-data folder names that carry peaks, in
// child order. External pickers build their choices from this.
func (e *Experiment) PeakFolders() []string {
	var out []string
	for i := range e.ProcData {
		if e.ProcData[i].HasPeaks {
			out = append(out, e.ProcData[i].ID)
		}
	}
	return out
}

// Directory is the result of scanning one root folder: every discovered
// experiment in enumeration order, plus the non-fatal problems encountered
// on the way. It is built by the scanner and read-only afterward.
type Directory struct {
	root        string
	order       []string
	experiments map[string]*Experiment
	diagnostics []Diagnostic
}

// NewDirectory constructs an empty directory model for the given root path.
func NewDirectory(root string) *Directory {
	return &Directory{
		root:        root,
		experiments: make(map[string]*Experiment),
	}
}

// Root returns the scanned root path.
func (d *Directory) Root() string { return d.root }

// Add inserts an experiment keyed by its ID, preserving insertion order.
// Re-adding an existing ID replaces the record without reordering.
func (d *Directory) Add(exp *Experiment) {
	if exp == nil {
		return
	}
	if _, exists := d.experiments[exp.ID]; !exists {
		d.order = append(d.order, exp.ID)
	}
	d.experiments[exp.ID] = exp
}

// Get returns the experiment with the given ID.
func (d *Directory) Get(id string) (*Experiment, bool) {
	exp, ok := d.experiments[id]
	return exp, ok
}

// IDs returns the experiment identifiers in insertion order.
func (d *Directory) IDs() []string {
	return append([]string(nil), d.order...)
}

// Experiments returns the experiments in insertion order.
func (d *Directory) Experiments() []*Experiment {
	out := make([]*Experiment, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.experiments[id])
	}
	return out
}

// Len reports the number of discovered experiments.
func (d *Directory) Len() int { return len(d.order) }

// AddDiagnostic records a non-fatal problem encountered during the scan.
func (d *Directory) AddDiagnostic(diag Diagnostic) {
	d.diagnostics = append(d.diagnostics, diag)
}

// Diagnostics returns the recorded problems in occurrence order.
func (d *Directory) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), d.diagnostics...)
}

// MarshalJSON renders the directory with experiments in insertion order.
func (d *Directory) MarshalJSON() ([]byte, error) {
	type view struct {
		Root        string        `json:"root"`
		Experiments []*Experiment `json:"experiments"`
		Diagnostics []Diagnostic  `json:"diagnostics,omitempty"`
	}
	return json.Marshal(view{
		Root:        d.root,
		Experiments: d.Experiments(),
		Diagnostics: d.diagnostics,
	})
}
