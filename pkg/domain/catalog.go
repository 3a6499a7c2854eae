package domain

// ExperimentType tags a classified acquisition.
type ExperimentType string

// Experiment types recognized by the default catalog. TypeUnknown is the
// fallback for acquisitions matching no catalog entry.
const (
	TypeHSQC         ExperimentType = "HSQC"
	TypeHMBC         ExperimentType = "HMBC"
	TypeCOSY         ExperimentType = "COSY"
	TypeNOESY        ExperimentType = "NOESY"
	TypeC13_1D       ExperimentType = "C13_1D"
	TypeH1_1D        ExperimentType = "H1_1D"
	TypePureshift1D  ExperimentType = "PURESHIFT_1D"
	TypeHSQCClipCosy ExperimentType = "HSQC_CLIPCOSY"
	TypeDDEPTCH3Only ExperimentType = "DDEPT_CH3_ONLY"
	TypeDEPT135      ExperimentType = "DEPT135"
	TypeUnknown      ExperimentType = "Unknown"
)

// CatalogEntry describes one recognizable pulse-sequence signature: the
// vendor pulse-program names it may appear under, the observed nuclei
// (compared as a set, order-insensitive) and the exact dimensionality.
type CatalogEntry struct {
	Type          ExperimentType `json:"type"`
	PulsePrograms []string       `json:"pulse_programs"`
	Nuclei        []string       `json:"nuclei"`
	Dims          int            `json:"dims"`
}

// Matches reports whether the given acquisition signature satisfies the
// entry: pulse-program membership, nuclei set equality, exact dims.
func (e CatalogEntry) Matches(pulseProgram string, nuclei []string, dims int) bool {
	if dims != e.Dims {
		return false
	}
	member := false
	for _, name := range e.PulsePrograms {
		if name == pulseProgram {
			member = true
			break
		}
	}
	if !member {
		return false
	}
	return nucleiSetEqual(e.Nuclei, nuclei)
}

func nucleiSetEqual(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, n := range a {
		as[n] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, n := range b {
		bs[n] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for n := range as {
		if _, ok := bs[n]; !ok {
			return false
		}
	}
	return true
}

// Catalog is an ordered list of entries. Declaration order is the match
// priority: overlapping pulse-program names across entries (shared NOAH
// sequences) are disambiguated by whichever entry is declared first.
type Catalog []CatalogEntry

// Classify returns the type of the first entry matching the signature, or
// TypeUnknown when none does.
func (c Catalog) Classify(pulseProgram string, nuclei []string, dims int) ExperimentType {
	for _, entry := range c {
		if entry.Matches(pulseProgram, nuclei, dims) {
			return entry.Type
		}
	}
	return TypeUnknown
}

// DefaultCatalog returns the built-in signature table for common Bruker and
// Varian pulse sequences. Entry order is load-bearing.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Type: TypeHSQC,
			PulsePrograms: []string{
				"hsqcedetgpsisp2.3.ptg", "hsqcedetgpsisp2.3", "gHSQCAD",
				"hsqcedetgpsp.3", "gHSQC", "inv4gp.wu", "hsqcetgp",
				"gns_noah3-BSScc.eeh", "hsqcedetgpsisp2.4",
			},
			Nuclei: []string{"1H", "13C"},
			Dims:   2,
		},
		{
			Type: TypeHMBC,
			PulsePrograms: []string{
				"ghmbc.wu", "gHMBC", "hmbcetgpl3nd", "hmbcetgpl3nd.ptg",
				"gHMBCAD", "hmbcgpndqf", "gns_noah3-BSScc.eeh", "shmbcctetgpl2nd",
				"hmbcedetgpl3nd",
			},
			Nuclei: []string{"1H", "13C"},
			Dims:   2,
		},
		{
			Type: TypeCOSY,
			PulsePrograms: []string{
				"cosygpqf", "cosygp", "gcosy", "cosygpmfppqf", "cosygpmfqf",
				"gCOSY", "cosygpppqf_ptype", "cosyqf45", "cosygpmfphpp",
				"cosygpppqf_ptype.jaa",
			},
			Nuclei: []string{"1H", "1H"},
			Dims:   2,
		},
		{
			Type:          TypeNOESY,
			PulsePrograms: []string{"noesygpphppzs"},
			Nuclei:        []string{"1H", "1H"},
			Dims:          2,
		},
		{
			Type:          TypeC13_1D,
			PulsePrograms: []string{"zgdc30", "s2pul", "zgpg30", "zgzrse", "zg0dc.fr"},
			Nuclei:        []string{"13C"},
			Dims:          1,
		},
		{
			Type:          TypeH1_1D,
			PulsePrograms: []string{"zg30", "s2pul", "zg", "zgcppr"},
			Nuclei:        []string{"1H"},
			Dims:          1,
		},
		{
			Type:          TypePureshift1D,
			PulsePrograms: []string{"ja_PSYCHE_pr_03b", "reset_psychetse.ptg"},
			Nuclei:        []string{"1H"},
			Dims:          2,
		},
		{
			Type:          TypeHSQCClipCosy,
			PulsePrograms: []string{"hsqc_clip_cosy_mc_notation.eeh", "gns_noah3-BSScc.eeh"},
			Nuclei:        []string{"1H", "13C"},
			Dims:          2,
		},
		{
			Type:          TypeDDEPTCH3Only,
			PulsePrograms: []string{"hcdeptedetgpzf"},
			Nuclei:        []string{"1H", "13C"},
			Dims:          2,
		},
		{
			Type:          TypeDEPT135,
			PulsePrograms: []string{"dept135.wu", "DEPT", "deptsp135"},
			Nuclei:        []string{"13C"},
			Dims:          1,
		},
	}
}
