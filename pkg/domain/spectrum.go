package domain

// PeakKind selects which peak elements a peak-list parse extracts.
type PeakKind string

// Peak list flavors. Two-dimensional lists carry both shift axes.
const (
	Peaks1D PeakKind = "1D"
	Peaks2D PeakKind = "2D"
)

// Peak is one resonance observation from a processed peak list. F2 is
// meaningful only for two-dimensional peaks. Sequences are ordered
// descending by F2 (2D) or F1 (1D); ties keep document order.
type Peak struct {
	F1         float64 `json:"f1_ppm"`
	F2         float64 `json:"f2_ppm,omitempty"`
	Intensity  float64 `json:"intensity"`
	Type       int     `json:"type"`
	Annotation string  `json:"annotation,omitempty"`
}

// Integral is one rectangular 2D integration region from an int2d table.
// Center1 and Center2 are the arithmetic means of the corresponding
// boundary ppm pairs. Sequences are ordered descending by Center2.
type Integral struct {
	Index        int     `json:"index"`
	Dim1Size     int     `json:"dim1_size"`
	RowStart     int     `json:"row_start"`
	RowEnd       int     `json:"row_end"`
	RowStartPPM  float64 `json:"row_start_ppm"`
	RowEndPPM    float64 `json:"row_end_ppm"`
	Dim2Size     int     `json:"dim2_size"`
	ColStart     int     `json:"col_start"`
	ColEnd       int     `json:"col_end"`
	ColStartPPM  float64 `json:"col_start_ppm"`
	ColEndPPM    float64 `json:"col_end_ppm"`
	AbsIntensity float64 `json:"abs_intensity"`
	Value        float64 `json:"integral"`
	Mode         string  `json:"mode"`
	Center1      float64 `json:"center1_ppm"`
	Center2      float64 `json:"center2_ppm"`
}
