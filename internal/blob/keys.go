package blob

import "fmt"

// Key layout: everything produced by one scan run lives under runs/<run-id>/
// so a single prefix list retrieves the whole run.

// DocumentKey returns the object key for a run's analysis document.
func DocumentKey(runID string) string {
	return "runs/" + runID + "/document.json"
}

// PeaksKey returns the object key for one experiment's exported peak table.
func PeaksKey(runID, experiment string) string {
	return fmt.Sprintf("runs/%s/peaks/%s.csv", runID, experiment)
}

// PeaksPrefix returns the listing prefix covering a run's peak tables.
func PeaksPrefix(runID string) string {
	return "runs/" + runID + "/peaks/"
}

// RunPrefix returns the listing prefix covering all objects of a run.
func RunPrefix(runID string) string {
	return "runs/" + runID + "/"
}
