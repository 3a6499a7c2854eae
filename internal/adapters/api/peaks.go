package api

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"nmrcore/pkg/domain"
)

// PeakRow is one flattened peak of a run export. F2 is zero for peaks picked
// from one-dimensional data.
type PeakRow struct {
	Experiment string  `json:"experiment"`
	ProcData   string  `json:"proc_data"`
	F1         float64 `json:"f1_ppm"`
	F2         float64 `json:"f2_ppm,omitempty"`
	Intensity  float64 `json:"intensity"`
	Annotation string  `json:"annotation,omitempty"`
}

var peaksHeader = []string{"experiment", "proc_data", "f1_ppm", "f2_ppm", "intensity", "annotation"}

// flattenExperiment collects every peak of one experiment, proc folders and
// peaks in scan order.
func flattenExperiment(exp *domain.Experiment) []PeakRow {
	oneDim := exp.Dims == 1 || exp.Type == domain.TypePureshift1D
	var rows []PeakRow
	for _, proc := range exp.ProcData {
		for _, peak := range proc.Peaks {
			row := PeakRow{
				Experiment: exp.ID,
				ProcData:   proc.ID,
				F1:         peak.F1,
				Intensity:  peak.Intensity,
				Annotation: peak.Annotation,
			}
			if !oneDim {
				row.F2 = peak.F2
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// encodePeaksCSV writes the header and rows. The empty F2 column marks
// one-dimensional peaks.
func encodePeaksCSV(w io.Writer, rows []PeakRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(peaksHeader); err != nil {
		return err
	}
	for _, row := range rows {
		f2 := ""
		if row.F2 != 0 {
			f2 = formatFloat(row.F2)
		}
		record := []string{
			row.Experiment,
			row.ProcData,
			formatFloat(row.F1),
			f2,
			formatFloat(row.Intensity),
			row.Annotation,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// parsePeaksCSV reads rows written by encodePeaksCSV.
func parsePeaksCSV(r io.Reader) ([]PeakRow, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) != len(peaksHeader) {
		return nil, fmt.Errorf("unexpected peaks table header")
	}
	rows := make([]PeakRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := PeakRow{Experiment: record[0], ProcData: record[1], Annotation: record[5]}
		if row.F1, err = strconv.ParseFloat(record[2], 64); err != nil {
			return nil, fmt.Errorf("peaks table f1: %w", err)
		}
		if record[3] != "" {
			if row.F2, err = strconv.ParseFloat(record[3], 64); err != nil {
				return nil, fmt.Errorf("peaks table f2: %w", err)
			}
		}
		if row.Intensity, err = strconv.ParseFloat(record[4], 64); err != nil {
			return nil, fmt.Errorf("peaks table intensity: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
