package document

import "nmrcore/pkg/domain"

// DefaultSelections pairs every classified experiment that carries peaks
// with its first peak folder, in scan order. Interactive callers build their
// own selections from Experiment.PeakFolders instead.
func DefaultSelections(dir *domain.Directory) []Selection {
	if dir == nil {
		return nil
	}
	var out []Selection
	for _, exp := range dir.Experiments() {
		if exp.Type == domain.TypeUnknown {
			continue
		}
		folders := exp.PeakFolders()
		if len(folders) == 0 {
			continue
		}
		out = append(out, Selection{ExperimentID: exp.ID, ProcNo: folders[0]})
	}
	return out
}
