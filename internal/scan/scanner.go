// Package scan walks a spectrometer output directory and builds the domain
// model: one Experiment per acquisition folder, classified against a
// catalog, with peaks and integrals parsed from every processed-data child.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"nmrcore/internal/bruker"
	"nmrcore/pkg/domain"
)

// Scanner turns a directory tree into a domain.Directory. It is safe for
// concurrent use; all state is set at construction.
type Scanner struct {
	catalog domain.Catalog
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   func() time.Time
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger routes scanner events to the supplied logger.
func WithLogger(l Logger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetricsRecorder publishes per-operation outcomes to the recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Scanner) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer opens a span per scanner operation.
func WithTracer(t Tracer) Option {
	return func(s *Scanner) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(clock func() time.Time) Option {
	return func(s *Scanner) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a scanner that classifies experiments against the given
// catalog.
func New(catalog domain.Catalog, opts ...Option) *Scanner {
	s := &Scanner{
		catalog: catalog,
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads the experiment folders under root. Parse problems inside an
// experiment are recorded as diagnostics on the result and never abort
// sibling folders; only a missing root or a cancelled context fails the
// scan itself.
func (s *Scanner) Scan(ctx context.Context, root string) (*domain.Directory, error) {
	var dir *domain.Directory
	err := s.instrument(ctx, "scan", func(ctx context.Context) error {
		var err error
		dir, err = s.scanRoot(ctx, root)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("scan complete",
		"root", root,
		"experiments", dir.Len(),
		"diagnostics", len(dir.Diagnostics()),
	)
	return dir, nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string) (*domain.Directory, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, domain.PathNotFoundError{Path: root}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, domain.PathNotFoundError{Path: root}
	}

	dir := domain.NewDirectory(root)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		exp := &domain.Experiment{
			ID:         entry.Name(),
			Path:       filepath.Join(root, entry.Name()),
			Nuclei:     []string{},
			Type:       domain.TypeUnknown,
			Parameters: make(map[string]domain.ParameterSet),
		}
		_ = s.instrument(ctx, "scan_experiment", func(ctx context.Context) error {
			return s.scanExperiment(dir, exp)
		})
		dir.Add(exp)
	}
	return dir, nil
}

// scanExperiment fills in one experiment folder. The returned error only
// reports how many diagnostics the folder produced; the experiment always
// lands in the directory.
func (s *Scanner) scanExperiment(dir *domain.Directory, exp *domain.Experiment) error {
	before := len(dir.Diagnostics())

	acquFiles := fileNamesWithPrefix(exp.Path, "acqu")
	exp.Dims = len(acquFiles) / 2

	for _, name := range acquFiles {
		params, err := bruker.ParseParameterFile(filepath.Join(exp.Path, name))
		if err != nil {
			s.report(dir, exp.ID, "", name, err)
			continue
		}
		exp.Parameters[name] = params
	}

	exp.PulseProgram = textParameter(exp.Parameters["acqu"], "PULPROG")
	exp.Nuclei = s.nuclei(exp)
	exp.Type = s.catalog.Classify(exp.PulseProgram, exp.Nuclei, exp.Dims)

	peakKind := domain.Peaks2D
	if exp.Dims == 1 || exp.Type == domain.TypePureshift1D {
		peakKind = domain.Peaks1D
	}

	for _, procID := range numericSubdirs(filepath.Join(exp.Path, "pdata")) {
		proc := domain.ProcessedData{
			ID:         procID,
			Path:       filepath.Join(exp.Path, "pdata", procID),
			Parameters: make(map[string]domain.ParameterSet),
		}
		s.scanProcData(dir, exp, &proc, peakKind)
		exp.ProcData = append(exp.ProcData, proc)
		if proc.HasPeaks {
			exp.HasPeaks = true
		}
		if proc.HasIntegrals {
			exp.HasIntegrals = true
		}
	}

	s.logger.Debug("experiment scanned",
		"experiment", exp.ID,
		"type", string(exp.Type),
		"dims", exp.Dims,
		"pulse_program", exp.PulseProgram,
	)

	if added := len(dir.Diagnostics()) - before; added > 0 {
		return fmt.Errorf("%d diagnostics", added)
	}
	return nil
}

func (s *Scanner) scanProcData(dir *domain.Directory, exp *domain.Experiment, proc *domain.ProcessedData, peakKind domain.PeakKind) {
	for _, name := range fileNamesWithPrefix(proc.Path, "proc") {
		params, err := bruker.ParseParameterFile(filepath.Join(proc.Path, name))
		if err != nil {
			s.report(dir, exp.ID, proc.ID, name, err)
			continue
		}
		proc.Parameters[name] = params
	}

	peakPath := filepath.Join(proc.Path, "peaklist.xml")
	if fileExists(peakPath) {
		peaks, err := bruker.ParsePeakListFile(peakPath, peakKind)
		if err != nil {
			s.report(dir, exp.ID, proc.ID, "peaklist.xml", err)
		} else {
			proc.Peaks = peaks
			proc.HasPeaks = len(peaks) > 0
		}
	}

	if exp.Dims != 2 {
		return
	}
	intPath := filepath.Join(proc.Path, "int2d")
	if fileExists(intPath) {
		integrals, err := bruker.ParseIntegralFile(intPath)
		if err != nil {
			s.report(dir, exp.ID, proc.ID, "int2d", err)
		} else {
			proc.Integrals = integrals
			proc.HasIntegrals = len(integrals) > 0
		}
	}
}

// nuclei derives the observed nucleus list from the acquisition parameter
// sets. Folders with no acquisition files keep an empty list; unexpected
// dimensionalities fall back to a single Unknown entry.
func (s *Scanner) nuclei(exp *domain.Experiment) []string {
	switch exp.Dims {
	case 0:
		return []string{}
	case 1:
		return []string{nucleusOf(exp.Parameters["acqu"])}
	case 2:
		return []string{nucleusOf(exp.Parameters["acqu"]), nucleusOf(exp.Parameters["acqu2"])}
	default:
		return []string{"Unknown"}
	}
}

func (s *Scanner) report(dir *domain.Directory, experiment, procData, file string, err error) {
	diag := domain.NewDiagnostic(experiment, procData, file, err)
	dir.AddDiagnostic(diag)
	s.logger.Warn("scan diagnostic",
		"experiment", experiment,
		"proc_data", procData,
		"file", file,
		"error", err,
	)
}

func (s *Scanner) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	start := s.clock()
	err := fn(ctx)
	s.metrics.Observe(ctx, operation, err == nil, s.clock().Sub(start))
	span.End(err)
	return err
}

func textParameter(params domain.ParameterSet, name string) string {
	if v, ok := params.Lookup(name); ok {
		return v.Text()
	}
	return "Unknown"
}

func nucleusOf(params domain.ParameterSet) string {
	if v, ok := params.Lookup("NUC1"); ok {
		return v.Text()
	}
	return "Unknown"
}

// fileNamesWithPrefix lists regular files in dir whose names start with
// prefix, in lexical order. A missing or unreadable dir yields nothing.
func fileNamesWithPrefix(dir, prefix string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

// numericSubdirs lists the digit-named subdirectories of dir in ascending
// numeric order.
func numericSubdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || !digitsOnly(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		a, _ := strconv.Atoi(names[i])
		b, _ := strconv.Atoi(names[j])
		return a < b
	})
	return names
}

func digitsOnly(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
