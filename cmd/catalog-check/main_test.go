package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmrcore/pkg/domain"
)

const validYAML = `experiments:
  - type: HSQC
    dims: 2
    nuclei: [1H, 13C]
    pulse_programs: [hsqcetgp]
  - type: H1_1D
    dims: 1
    nuclei: [1H]
    pulse_programs: [zg30, zg]
`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := cli(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeCatalog(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestCLIValidCatalogFile(t *testing.T) {
	path := writeCatalog(t, validYAML)
	code, stdout, stderr := runCLI(t, "-catalog", path)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "Catalog validation passed (2 entries, 2 types).") {
		t.Fatalf("stdout = %q", stdout)
	}
	if stderr != "" {
		t.Fatalf("unexpected warnings: %s", stderr)
	}
}

func TestCLIBuiltinCatalog(t *testing.T) {
	code, stdout, stderr := runCLI(t)
	if code != 0 {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout, "Catalog validation passed") {
		t.Fatalf("stdout = %q", stdout)
	}
	// The built-in table lets the first NOAH claim win; the later claims on
	// the shared sequence are reported, not rejected.
	if got := strings.Count(stderr, "is shadowed by"); got != 2 {
		t.Fatalf("shadow warnings = %d, stderr = %s", got, stderr)
	}
	if !strings.Contains(stderr, "gns_noah3-BSScc.eeh") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestCLIStrictFailsOnShadows(t *testing.T) {
	code, _, stderr := runCLI(t, "-strict")
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "strict mode") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestCLIMissingFile(t *testing.T) {
	code, _, stderr := runCLI(t, "-catalog", filepath.Join(t.TempDir(), "absent.yaml"))
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "Catalog validation failed") || !strings.Contains(stderr, "read catalog") {
		t.Fatalf("stderr = %q", stderr)
	}
}

func TestCLIFlagError(t *testing.T) {
	code, _, _ := runCLI(t, "-definitely-not-a-flag")
	if code != 2 {
		t.Fatalf("exit = %d, want 2", code)
	}
}

func TestCLIRejectsBrokenCatalogs(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad dims",
			yaml: "experiments:\n  - type: X\n    dims: 3\n    nuclei: [1H]\n    pulse_programs: [zg]\n",
			want: "dims must be 1 or 2",
		},
		{
			name: "reserved type",
			yaml: "experiments:\n  - type: Unknown\n    dims: 1\n    nuclei: [1H]\n    pulse_programs: [zg]\n",
			want: "reserved",
		},
		{
			name: "bad nucleus",
			yaml: "experiments:\n  - type: X\n    dims: 1\n    nuclei: [off]\n    pulse_programs: [zg]\n",
			want: "invalid nucleus",
		},
		{
			name: "blank pulse program",
			yaml: "experiments:\n  - type: X\n    dims: 1\n    nuclei: [1H]\n    pulse_programs: [\"\"]\n",
			want: "blank pulse program",
		},
		{
			name: "duplicate pulse program",
			yaml: "experiments:\n  - type: X\n    dims: 1\n    nuclei: [1H]\n    pulse_programs: [zg, zg]\n",
			want: "duplicate pulse program",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeCatalog(t, tc.yaml)
			code, _, stderr := runCLI(t, "-catalog", path)
			if code != 1 {
				t.Fatalf("exit = %d, want 1", code)
			}
			if !strings.Contains(stderr, tc.want) {
				t.Fatalf("stderr = %q, want mention of %q", stderr, tc.want)
			}
		})
	}
}

func TestLintShadowDetail(t *testing.T) {
	cat := domain.Catalog{
		{Type: domain.TypeHSQC, PulsePrograms: []string{"shared"}, Nuclei: []string{"1H", "13C"}, Dims: 2},
		{Type: domain.TypeHMBC, PulsePrograms: []string{"shared", "own"}, Nuclei: []string{"13C", "1H"}, Dims: 2},
	}
	warnings, err := lint(cat)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v", warnings)
	}
	want := `pulse program "shared" (13C+1H, 2D) in entry 1 (HMBC) is shadowed by entry 0 (HSQC)`
	if warnings[0] != want {
		t.Fatalf("warning = %q, want %q", warnings[0], want)
	}
}

func TestLintIgnoresOverlapAcrossDifferentSignatures(t *testing.T) {
	// s2pul style: one vendor program serving both 1H and 13C one-dimensional
	// acquisitions is not a shadow, the nuclei disambiguate.
	cat := domain.Catalog{
		{Type: domain.TypeC13_1D, PulsePrograms: []string{"s2pul"}, Nuclei: []string{"13C"}, Dims: 1},
		{Type: domain.TypeH1_1D, PulsePrograms: []string{"s2pul"}, Nuclei: []string{"1H"}, Dims: 1},
	}
	warnings, err := lint(cat)
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
}

func TestMainPatchedExit(t *testing.T) {
	oldExit := exitFunc
	oldArgs := os.Args
	defer func() {
		exitFunc = oldExit
		os.Args = oldArgs
	}()

	var code int
	exitFunc = func(c int) { code = c }
	os.Args = []string{"catalog-check"}
	main()
	if code != 0 {
		t.Fatalf("exit = %d, want 0", code)
	}
}
