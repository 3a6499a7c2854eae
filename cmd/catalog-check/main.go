// Command catalog-check validates an experiment classification catalog before
// it is deployed to scanners: structural checks beyond what the YAML loader
// enforces, plus shadow analysis across entries.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"nmrcore/internal/catalog"
	"nmrcore/pkg/domain"
)

var exitFunc = os.Exit

// nucleusRE matches Bruker nucleus labels: mass number first, then the
// element symbol, as in 1H, 13C or 29Si.
var nucleusRE = regexp.MustCompile(`^[0-9]{1,3}[A-Z][a-z]?$`)

// main runs the command-line interface over the program arguments and exits
// with the code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("catalog-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		catalogPath string
		strict      bool
	)
	fs.StringVar(&catalogPath, "catalog", "", "path to catalog yaml (empty checks the built-in catalog)")
	fs.BoolVar(&strict, "strict", false, "treat shadowed signatures as errors")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cat, err := catalog.LoadOrDefault(catalogPath)
	if err != nil {
		return fail(stderr, err)
	}

	warnings, err := lint(cat)
	for _, w := range warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	if err != nil {
		return fail(stderr, err)
	}
	if strict && len(warnings) > 0 {
		return fail(stderr, fmt.Errorf("%d shadowed signatures in strict mode", len(warnings)))
	}

	if _, writeErr := fmt.Fprintf(stdout, "Catalog validation passed (%d entries, %d types).\n", len(cat), countTypes(cat)); writeErr != nil {
		return 1
	}
	return 0
}

func fail(stderr io.Writer, err error) int {
	if _, writeErr := fmt.Fprintf(stderr, "Catalog validation failed: %v\n", err); writeErr != nil {
		return 1
	}
	return 1
}

// signature is the full match key of one pulse-program claim. Two entries
// claiming the same signature can never both win; the later one is dead.
type signature struct {
	program string
	nuclei  string
	dims    int
}

// lint reports catalog configuration that parses but cannot behave as
// written. Shadowed claims come back as warnings: declaration order is the
// documented tie-breaker for shared supersequences like NOAH, so an overlap
// may be intentional. Everything else is an error.
func lint(cat domain.Catalog) ([]string, error) {
	var warnings []string
	claimed := make(map[signature]int)
	for i, entry := range cat {
		if entry.Type == domain.TypeUnknown {
			return warnings, fmt.Errorf("entry %d: type %q is reserved for unclassified acquisitions", i, domain.TypeUnknown)
		}
		for _, nuc := range entry.Nuclei {
			if !nucleusRE.MatchString(nuc) {
				return warnings, fmt.Errorf("entry %d (%s): invalid nucleus %q", i, entry.Type, nuc)
			}
		}
		seen := make(map[string]struct{}, len(entry.PulsePrograms))
		for _, prog := range entry.PulsePrograms {
			if strings.TrimSpace(prog) == "" {
				return warnings, fmt.Errorf("entry %d (%s): blank pulse program", i, entry.Type)
			}
			if _, dup := seen[prog]; dup {
				return warnings, fmt.Errorf("entry %d (%s): duplicate pulse program %q", i, entry.Type, prog)
			}
			seen[prog] = struct{}{}

			sig := signature{program: prog, nuclei: nucleiKey(entry.Nuclei), dims: entry.Dims}
			if first, ok := claimed[sig]; ok {
				warnings = append(warnings, fmt.Sprintf(
					"pulse program %q (%s, %dD) in entry %d (%s) is shadowed by entry %d (%s)",
					prog, sig.nuclei, sig.dims, i, entry.Type, first, cat[first].Type))
				continue
			}
			claimed[sig] = i
		}
	}
	return warnings, nil
}

// nucleiKey canonicalizes a nuclei list to its set form, matching how
// classification compares nuclei.
func nucleiKey(nuclei []string) string {
	set := make(map[string]struct{}, len(nuclei))
	for _, n := range nuclei {
		set[n] = struct{}{}
	}
	uniq := make([]string, 0, len(set))
	for n := range set {
		uniq = append(uniq, n)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, "+")
}

func countTypes(cat domain.Catalog) int {
	types := make(map[domain.ExperimentType]struct{}, len(cat))
	for _, e := range cat {
		types[e.Type] = struct{}{}
	}
	return len(types)
}
