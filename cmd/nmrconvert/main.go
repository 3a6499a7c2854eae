// Command nmrconvert scans a Bruker experiment directory, classifies the
// experiments, and writes the converted analysis document.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"nmrcore/internal/adapters/submit"
	"nmrcore/internal/blob"
	"nmrcore/internal/catalog"
	"nmrcore/internal/document"
	"nmrcore/internal/infra/persistence"
	"nmrcore/internal/registry"
	"nmrcore/internal/scan"
	"nmrcore/internal/zaplog"
	"nmrcore/pkg/domain"
)

const userAgent = "nmrconvert/1.0"

var exitFunc = os.Exit

type options struct {
	root        string
	catalogPath string
	out         string
	summary     bool
	jsonOut     bool
	storeDriver string
	storeDSN    string
	blobDriver  string
	blobRoot    string
	submitURL   string
	smiles      string
	molfile     string
	mlConsent   bool
	quiet       bool
	trace       bool
}

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nmrconvert", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.root, "root", "", "experiment directory to scan (required)")
	fs.StringVar(&opts.catalogPath, "catalog", "", "experiment catalog YAML (built-in catalog when empty)")
	fs.StringVar(&opts.out, "out", "-", "document output path, - for stdout")
	fs.BoolVar(&opts.summary, "summary", false, "print a human-readable scan summary")
	fs.BoolVar(&opts.jsonOut, "json", false, "print the scan summary as JSON")
	fs.StringVar(&opts.storeDriver, "store-driver", "", "run registry backend: memory, sqlite or postgres")
	fs.StringVar(&opts.storeDSN, "store-dsn", "", "sqlite path or postgres DSN for the run registry")
	fs.StringVar(&opts.blobDriver, "blob-driver", "", "document store backend: fs, s3 or memory")
	fs.StringVar(&opts.blobRoot, "blob-root", "", "root directory for the fs document store")
	fs.StringVar(&opts.submitURL, "submit", "", "analysis service base URL to submit the document to")
	fs.StringVar(&opts.smiles, "smiles", "", "molecule SMILES string for the document")
	fs.StringVar(&opts.molfile, "molfile", "", "path to a molfile attached to the document")
	fs.BoolVar(&opts.mlConsent, "ml-consent", false, "consent to machine-learning use of the submitted data")
	fs.BoolVar(&opts.quiet, "quiet", false, "suppress progress logging")
	fs.BoolVar(&opts.trace, "trace", false, "write JSON trace spans to stderr")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(opts.root) == "" {
		fmt.Fprintln(stderr, "nmrconvert: -root is required")
		fs.Usage()
		return 1
	}

	if err := run(context.Background(), opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "nmrconvert: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	cat, err := catalog.LoadOrDefault(opts.catalogPath)
	if err != nil {
		return err
	}

	var scanOpts []scan.Option
	if !opts.quiet {
		logger, err := zaplog.New(true)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()
		scanOpts = append(scanOpts, scan.WithLogger(logger))
	}
	if opts.trace {
		scanOpts = append(scanOpts, scan.WithTracer(scan.NewJSONTracer(stderr)))
	}

	started := time.Now().UTC()
	dir, err := scan.New(cat, scanOpts...).Scan(ctx, opts.root)
	if err != nil {
		return err
	}
	finished := time.Now().UTC()

	store, err := persistence.Open(persistence.Driver(opts.storeDriver), opts.storeDSN)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	saved, err := store.SaveRun(ctx, registry.Summarize(dir, started, finished))
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	doc, err := buildDocument(opts, dir)
	if err != nil {
		return err
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if opts.blobDriver != "" || opts.blobRoot != "" {
		key, err := storeDocument(ctx, opts, saved.ID, payload)
		if err != nil {
			return err
		}
		saved.DocumentKey = key
		if saved, err = store.SaveRun(ctx, saved); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
	}

	if err := writeDocument(opts.out, payload, stdout); err != nil {
		return err
	}

	if opts.submitURL != "" {
		client := &submit.Client{BaseURL: opts.submitURL, UserAgent: userAgent}
		receipt, err := client.Submit(ctx, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "submitted: id=%s status=%s\n", receipt.ID, receipt.Status)
	}

	// When the document itself goes to stdout, the summary moves to stderr
	// so the output stream stays parseable.
	summaryOut := stdout
	if opts.out == "-" {
		summaryOut = stderr
	}
	if opts.jsonOut {
		if err := printJSONSummary(summaryOut, saved, dir); err != nil {
			return err
		}
	} else if opts.summary {
		printSummary(summaryOut, saved, dir)
	}
	return nil
}

func buildDocument(opts options, dir *domain.Directory) (*document.Document, error) {
	var builderOpts []document.BuilderOption
	if opts.smiles != "" || opts.molfile != "" {
		mol := document.Molecule{SMILES: opts.smiles}
		if opts.molfile != "" {
			data, err := os.ReadFile(opts.molfile)
			if err != nil {
				return nil, fmt.Errorf("read molfile: %w", err)
			}
			mol.Molfile = string(data)
		}
		builderOpts = append(builderOpts, document.WithMolecule(mol))
	}
	if opts.mlConsent {
		builderOpts = append(builderOpts, document.WithMLConsent(true))
	}
	return document.NewBuilder(dir, builderOpts...).Build(document.DefaultSelections(dir))
}

func storeDocument(ctx context.Context, opts options, runID string, payload []byte) (string, error) {
	driver := blob.Driver(opts.blobDriver)
	if driver == "" {
		driver = blob.DriverFilesystem
	}
	docs, err := blob.OpenDriver(ctx, driver, opts.blobRoot)
	if err != nil {
		return "", err
	}
	key := blob.DocumentKey(runID)
	if _, err := docs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"run": runID},
	}); err != nil {
		return "", fmt.Errorf("store document: %w", err)
	}
	return key, nil
}

func writeDocument(out string, payload []byte, stdout io.Writer) error {
	payload = append(payload, '\n')
	if out == "-" {
		_, err := stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(out, payload, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, run registry.Run, dir *domain.Directory) {
	fmt.Fprintf(w, "scanned %s: %d experiments, %d with peaks\n", run.Root, run.Experiments, run.WithPeaks)
	if len(run.Types) > 0 {
		keys := make([]string, 0, len(run.Types))
		for k := range run.Types {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%d", k, run.Types[k]))
		}
		fmt.Fprintf(w, "  types: %s\n", strings.Join(parts, " "))
	}
	if run.DocumentKey != "" {
		fmt.Fprintf(w, "  document: %s\n", run.DocumentKey)
	}
	if diags := dir.Diagnostics(); len(diags) > 0 {
		fmt.Fprintf(w, "  diagnostics (%d):\n", len(diags))
		for _, d := range diags {
			fmt.Fprintf(w, "    %s\n", d.String())
		}
	}
}

func printJSONSummary(w io.Writer, run registry.Run, dir *domain.Directory) error {
	diags := dir.Diagnostics()
	if diags == nil {
		diags = []domain.Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Run         registry.Run        `json:"run"`
		Diagnostics []domain.Diagnostic `json:"diagnostics"`
	}{Run: run, Diagnostics: diags})
}
