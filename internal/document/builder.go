package document

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"nmrcore/pkg/domain"
)

// Molecule carries caller-supplied structure input. Both fields are opaque
// pass-through text; nothing is derived from them.
type Molecule struct {
	SMILES  string
	Molfile string
}

// Selection names one experiment and the processed-data folder whose peaks
// and integrals should feed its spectrum section.
type Selection struct {
	ExperimentID string
	ProcNo       string
}

// Builder assembles analysis documents from a scanned directory.
type Builder struct {
	dir       *domain.Directory
	molecule  Molecule
	hostID    string
	mlConsent bool
	annealing bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMolecule attaches SMILES and molfile text to the document.
func WithMolecule(m Molecule) BuilderOption {
	return func(b *Builder) { b.molecule = m }
}

// WithHostID overrides the hardware identifier written to the hostname
// section.
func WithHostID(id string) BuilderOption {
	return func(b *Builder) { b.hostID = id }
}

// WithMLConsent sets the machine-learning consent flag.
func WithMLConsent(consent bool) BuilderOption {
	return func(b *Builder) { b.mlConsent = consent }
}

// WithSimulatedAnnealing sets the simulated-annealing request flag.
func WithSimulatedAnnealing(enabled bool) BuilderOption {
	return func(b *Builder) { b.annealing = enabled }
}

// NewBuilder constructs a builder over the scanned directory.
func NewBuilder(dir *domain.Directory, opts ...BuilderOption) *Builder {
	b := &Builder{dir: dir}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the document for the selected experiments, in selection
// order. Selections naming unknown experiments or experiments classified
// Unknown contribute no spectrum section.
func (b *Builder) Build(selections []Selection) (*Document, error) {
	if b.dir == nil {
		return nil, fmt.Errorf("build document: no scanned directory")
	}

	doc := newDocument()
	b.addMolecularInfo(doc)
	b.addSystemInfo(doc)
	b.addAtomPlaceholders(doc)
	b.addSpectra(doc, selections)
	b.addSpectraWithPeaks(doc)
	b.addProcessingParameters(doc)
	doc.add("ml_consent", scalarSection("ml_consent", b.mlConsent))
	doc.add("simulatedAnnealing", scalarSection("simulatedAnnealing", b.annealing))
	return doc, nil
}

func (b *Builder) addMolecularInfo(doc *Document) {
	if b.molecule.SMILES != "" {
		doc.add("smiles", scalarSection("smiles", b.molecule.SMILES))
	}
	if b.molecule.Molfile != "" {
		doc.add("molfile", scalarSection("molfile", b.molecule.Molfile))
	}
}

func (b *Builder) addSystemInfo(doc *Document) {
	host := b.hostID
	if host == "" {
		host = defaultHostID()
	}
	doc.add("hostname", scalarSection("hostname", host))

	abs, err := filepath.Abs(b.dir.Root())
	if err != nil {
		abs = b.dir.Root()
	}
	doc.add("workingDirectory", scalarSection("workingDirectory", filepath.ToSlash(abs)))
	doc.add("workingFilename", scalarSection("workingFilename", filepath.Base(abs)))
}

// addAtomPlaceholders emits the atom bookkeeping sections. Structure input
// is opaque here, so counts stay zero; the analysis service fills them in.
func (b *Builder) addAtomPlaceholders(doc *Document) {
	doc.add("allAtomsInfo", emptySection("allAtomsInfo"))
	doc.add("carbonAtomsInfo", emptySection("carbonAtomsInfo"))
	doc.add("nmrAssignments", emptySection("nmrAssignments"))
	doc.add("c13predictions", emptySection("c13predictions"))
}

func (b *Builder) addSpectra(doc *Document, selections []Selection) {
	var chosen []string
	occurrences := make(map[domain.ExperimentType]int)

	for _, sel := range selections {
		exp, ok := b.dir.Get(sel.ExperimentID)
		if !ok || exp.Type == domain.TypeUnknown {
			continue
		}

		sectionID := fmt.Sprintf("%s_%d", exp.Type, occurrences[exp.Type])
		occurrences[exp.Type]++

		doc.add(sectionID, b.spectrumEntry(exp, sectionID, sel.ProcNo))

		nucleus := nucleusLabel(exp.Nuclei, exp.Dims)
		chosen = append(chosen, fmt.Sprintf("%s %dD %s %s %s",
			nucleus, exp.Dims, exp.PulseProgram, sectionID, exp.Type))
	}

	doc.add("chosenSpectra", listSection("chosenSpectra", chosen))

	var identifiers []string
	for _, exp := range b.dir.Experiments() {
		identifiers = append(identifiers, string(exp.Type))
	}
	doc.add("exptIdentifiers", listSection("exptIdentifiers", identifiers))
}

func (b *Builder) addSpectraWithPeaks(doc *Document) {
	var names []string
	for _, exp := range b.dir.Experiments() {
		if !exp.HasPeaks {
			continue
		}
		suffix := "ser"
		label := fmt.Sprintf("%s %s", nucleusLabel(exp.Nuclei, exp.Dims), exp.Type)
		if exp.Dims == 1 {
			suffix = "fid"
			label = fmt.Sprintf("%s 1D", firstNucleus(exp.Nuclei))
		}
		names = append(names, fmt.Sprintf("%s %s %s.%s_0", label, exp.PulseProgram, exp.ID, suffix))
	}
	doc.add("spectraWithPeaks", listSection("spectraWithPeaks", names))
}

func (b *Builder) addProcessingParameters(doc *Document) {
	doc.add("carbonCalcPositionsMethod", scalarSection("carbonCalcPositionsMethod", "Calculated Positions"))
	doc.add("MNOVAcalcMethod", scalarSection("MNOVAcalcMethod", "NMRSHIFTDB2 Predict"))
	doc.add("randomizeStart", scalarSection("randomizeStart", false))
	doc.add("startingTemperature", scalarSection("startingTemperature", 1000))
	doc.add("endingTemperature", scalarSection("endingTemperature", 0.1))
	doc.add("coolingRate", scalarSection("coolingRate", 0.999))
	doc.add("numberOfSteps", scalarSection("numberOfSteps", 10000))
	doc.add("ppmGroupSeparation", scalarSection("ppmGroupSeparation", 2))
}

// spectrumEntry is one converted spectrum. Wire keys follow the analysis
// service contract, including the intrument spelling.
type spectrumEntry struct {
	Datatype       string        `json:"datatype"`
	Origin         string        `json:"origin"`
	Type           string        `json:"type"`
	Subtype        string        `json:"subtype"`
	ExperimentType string        `json:"experimenttype"`
	Experiment     string        `json:"experiment"`
	Class          string        `json:"class"`
	Spectype       string        `json:"spectype"`
	PulseSequence  string        `json:"pulsesequence"`
	Instrument     string        `json:"intrument"`
	Probe          string        `json:"probe"`
	DataFilename   string        `json:"datafilename"`
	Nucleus        string        `json:"nucleus"`
	SpecFrequency  any           `json:"specfrequency"`
	Temperature    string        `json:"temperature"`
	Peaks          peaksEnvelope `json:"peaks"`
	Integrals      normEnvelope  `json:"integrals"`
	Multiplets     normEnvelope  `json:"multiplets"`
	Filename       string        `json:"filename,omitempty"`
}

type peaksEnvelope struct {
	Datatype string               `json:"datatype"`
	Data     map[string]peakEntry `json:"data"`
	Count    int                  `json:"count"`
}

type peakEntry struct {
	Intensity  float64 `json:"intensity"`
	Type       int     `json:"type"`
	Annotation string  `json:"annotation"`
	Delta1     float64 `json:"delta1"`
	Delta2     float64 `json:"delta2"`
}

type normEnvelope struct {
	Datatype  string         `json:"datatype"`
	Count     int            `json:"count"`
	NormValue int            `json:"normValue"`
	Data      map[string]any `json:"data"`
}

func emptyNormEnvelope(datatype string) normEnvelope {
	return normEnvelope{Datatype: datatype, Count: 0, NormValue: 1, Data: map[string]any{}}
}

type integralEntry struct {
	Intensity float64 `json:"intensity"`
	RangeMin1 float64 `json:"rangeMin1"`
	RangeMin2 float64 `json:"rangeMin2"`
	RangeMax1 float64 `json:"rangeMax1"`
	RangeMax2 float64 `json:"rangeMax2"`
	Delta1    float64 `json:"delta1"`
	Delta2    float64 `json:"delta2"`
	Type      int     `json:"type"`
}

func (b *Builder) spectrumEntry(exp *domain.Experiment, sectionID, procNo string) spectrumEntry {
	acqu := exp.Parameters["acqu"]
	acqu2 := exp.Parameters["acqu2"]

	dimTag := "1D"
	experimentType := "1D"
	if exp.Dims == 2 {
		dimTag = "2D"
		experimentType = "2D-" + string(exp.Type)
	}

	entry := spectrumEntry{
		Datatype:       "nmrspectrum",
		Origin:         "Bruker XWIN-NMR",
		Type:           dimTag,
		Subtype:        spectrumSubtype(exp.Nuclei, exp.Type),
		ExperimentType: experimentType,
		Experiment:     string(exp.Type),
		PulseSequence:  exp.PulseProgram,
		Instrument:     "Avance",
		Probe:          probeLabel(acqu),
		DataFilename:   exp.Path,
		Nucleus:        nucleusField(exp.Nuclei),
		SpecFrequency:  specFrequency(acqu, acqu2, exp.Dims),
		Temperature:    temperatureLabel(acqu),
		Peaks:          b.peaksSection(exp, procNo),
		Integrals:      b.integralsSection(exp, procNo),
		Multiplets:     emptyNormEnvelope("multiplets"),
		Filename:       sectionID,
	}
	return entry
}

func (b *Builder) peaksSection(exp *domain.Experiment, procNo string) peaksEnvelope {
	env := peaksEnvelope{Datatype: "peaks", Data: map[string]peakEntry{}}
	proc := findProc(exp, procNo)
	if proc == nil || len(proc.Peaks) == 0 {
		return env
	}
	env.Count = len(proc.Peaks)
	for i, p := range proc.Peaks {
		env.Data[strconv.Itoa(i)] = peakEntry{
			Intensity:  p.Intensity,
			Type:       0,
			Annotation: p.Annotation,
			Delta1:     p.F1,
			Delta2:     p.F2,
		}
	}
	return env
}

func (b *Builder) integralsSection(exp *domain.Experiment, procNo string) normEnvelope {
	env := emptyNormEnvelope("integrals")
	if exp.Dims != 2 {
		return env
	}
	proc := findProc(exp, procNo)
	if proc == nil || len(proc.Integrals) == 0 {
		return env
	}
	env.Count = len(proc.Integrals)
	for i, in := range proc.Integrals {
		env.Data[strconv.Itoa(i)] = integralEntry{
			Intensity: in.Value,
			RangeMin1: in.RowEndPPM,
			RangeMin2: in.ColStartPPM,
			RangeMax1: in.RowStartPPM,
			RangeMax2: in.ColEndPPM,
			Delta1:    in.Center1,
			Delta2:    in.Center2,
			Type:      0,
		}
	}
	return env
}

func findProc(exp *domain.Experiment, procNo string) *domain.ProcessedData {
	for i := range exp.ProcData {
		if exp.ProcData[i].ID == procNo {
			return &exp.ProcData[i]
		}
	}
	return nil
}

func spectrumSubtype(nuclei []string, expType domain.ExperimentType) string {
	switch len(nuclei) {
	case 1:
		return nuclei[0]
	case 2:
		switch expType {
		case domain.TypeCOSY:
			return fmt.Sprintf("%s%s, COSY", nuclei[0], nuclei[1])
		case domain.TypeHSQC:
			return fmt.Sprintf("%s%s, HSQC-EDITED", nuclei[1], nuclei[0])
		case domain.TypeHMBC:
			return fmt.Sprintf("%s%s, HMBC", nuclei[1], nuclei[0])
		default:
			return fmt.Sprintf("%s%s, %s", nuclei[1], nuclei[0], expType)
		}
	default:
		return "Unknown"
	}
}

func nucleusField(nuclei []string) string {
	if len(nuclei) == 1 {
		return nuclei[0]
	}
	return "[" + strings.Join(nuclei, ", ") + "]"
}

func nucleusLabel(nuclei []string, dims int) string {
	if dims == 1 {
		return firstNucleus(nuclei)
	}
	return "[" + strings.Join(nuclei, ", ") + "]"
}

func firstNucleus(nuclei []string) string {
	if len(nuclei) == 0 {
		return "Unknown"
	}
	return nuclei[0]
}

func probeLabel(acqu domain.ParameterSet) string {
	if v, ok := acqu.Lookup("PROBHD"); ok {
		return v.Text()
	}
	return "Unknown probe"
}

func temperatureLabel(acqu domain.ParameterSet) string {
	v, ok := acqu.Lookup("TE")
	if !ok {
		return "Unknown"
	}
	if list, isList := v.List(); isList {
		if len(list) == 0 {
			return "Unknown"
		}
		return list[0].Text()
	}
	return v.Text()
}

// specFrequency reports the base frequency: a bare number for 1D, and the
// two-axis "[bf2, bf1]" string for 2D.
func specFrequency(acqu, acqu2 domain.ParameterSet, dims int) any {
	bf1, _ := acqu.Get("BF1").Float64()
	if dims != 2 {
		return bf1
	}
	bf2, _ := acqu2.Get("BF1").Float64()
	return fmt.Sprintf("[%s, %s]",
		strconv.FormatFloat(bf2, 'g', -1, 64),
		strconv.FormatFloat(bf1, 'g', -1, 64))
}

// defaultHostID derives a stable hardware identifier from the first usable
// interface MAC, formatted as a hex literal.
func defaultHostID() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "0x0"
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagLoopback != 0 || len(ifc.HardwareAddr) < 6 {
			continue
		}
		var v uint64
		for _, octet := range ifc.HardwareAddr[:6] {
			v = v<<8 | uint64(octet)
		}
		if v != 0 {
			return fmt.Sprintf("0x%x", v)
		}
	}
	return "0x0"
}
