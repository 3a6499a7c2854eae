// Package api exposes scan runs and converted documents over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"nmrcore/docs/schema"
	"nmrcore/internal/blob"
	"nmrcore/internal/catalog"
	"nmrcore/internal/document"
	"nmrcore/internal/registry"
	"nmrcore/internal/scan"
	"nmrcore/pkg/domain"
)

// Handler routes the /api/v1 surface. Catalog and Runs are required.
// Documents enables document persistence and retrieval, Metrics serves
// /metrics and feeds scanner outcomes, Logger receives request events.
type Handler struct {
	Catalog   domain.Catalog
	Runs      registry.Store
	Documents blob.Store
	Metrics   *PrometheusMetrics
	Logger    scan.Logger
}

// NewHandler constructs a handler over the given catalog and run store.
func NewHandler(cat domain.Catalog, runs registry.Store) *Handler {
	if cat == nil {
		cat = domain.DefaultCatalog()
	}
	return &Handler{Catalog: cat, Runs: runs}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Runs == nil {
		writeError(w, http.StatusInternalServerError, "run store not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/healthz":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		payload := map[string]any{"status": "ok"}
		if version, err := schema.APIVersion(); err == nil && version != "" {
			payload["version"] = version
		}
		writeJSON(w, http.StatusOK, payload)
	case path == "/metrics":
		if h.Metrics == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.Metrics.Handler().ServeHTTP(w, r)
	case path == "/api/v1/scans":
		switch r.Method {
		case http.MethodPost:
			h.handleScanCreate(w, r)
		case http.MethodGet:
			h.handleScanList(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case strings.HasPrefix(path, "/api/v1/scans/"):
		h.handleScan(w, r, strings.TrimPrefix(path, "/api/v1/scans/"))
	default:
		http.NotFound(w, r)
	}
}

type scanRequest struct {
	Root    string `json:"root"`
	Catalog string `json:"catalog"`
	Store   bool   `json:"store"`
}

type scanSummary struct {
	Experiments int                 `json:"experiments"`
	WithPeaks   int                 `json:"with_peaks"`
	Types       map[string]int      `json:"types,omitempty"`
	Diagnostics []domain.Diagnostic `json:"diagnostics,omitempty"`
}

type scanResponse struct {
	Run     registry.Run `json:"run"`
	Summary scanSummary  `json:"summary"`
}

func (h *Handler) handleScanCreate(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid scan request payload")
		return
	}
	if strings.TrimSpace(req.Root) == "" {
		writeError(w, http.StatusBadRequest, "root required")
		return
	}
	if req.Store && h.Documents == nil {
		writeError(w, http.StatusBadRequest, "document store not configured")
		return
	}

	cat := h.Catalog
	if req.Catalog != "" {
		loaded, err := catalog.Load(req.Catalog)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("load catalog: %v", err))
			return
		}
		cat = loaded
	}

	var opts []scan.Option
	if h.Logger != nil {
		opts = append(opts, scan.WithLogger(h.Logger))
	}
	if h.Metrics != nil {
		opts = append(opts, scan.WithMetricsRecorder(h.Metrics))
	}

	started := time.Now().UTC()
	dir, err := scan.New(cat, opts...).Scan(r.Context(), req.Root)
	if err != nil {
		var notFound domain.PathNotFoundError
		if errors.As(err, &notFound) {
			writeError(w, http.StatusBadRequest, notFound.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	finished := time.Now().UTC()

	saved, err := h.Runs.SaveRun(r.Context(), registry.Summarize(dir, started, finished))
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("save run: %v", err))
		return
	}

	if req.Store {
		key, err := h.storeArtifacts(r.Context(), saved.ID, dir)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("store document: %v", err))
			return
		}
		saved.DocumentKey = key
		if saved, err = h.Runs.SaveRun(r.Context(), saved); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("save run: %v", err))
			return
		}
	}

	if h.Logger != nil {
		h.Logger.Info("scan run created",
			"run", saved.ID,
			"root", saved.Root,
			"experiments", saved.Experiments,
			"stored", req.Store,
		)
	}

	writeJSON(w, http.StatusCreated, scanResponse{
		Run: saved,
		Summary: scanSummary{
			Experiments: saved.Experiments,
			WithPeaks:   saved.WithPeaks,
			Types:       saved.Types,
			Diagnostics: dir.Diagnostics(),
		},
	})
}

// storeArtifacts persists the converted document plus one peaks table per
// peaked experiment, and returns the document key.
func (h *Handler) storeArtifacts(ctx context.Context, runID string, dir *domain.Directory) (string, error) {
	doc, err := document.NewBuilder(dir).Build(document.DefaultSelections(dir))
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	key := blob.DocumentKey(runID)
	if _, err := h.Documents.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"run": runID},
	}); err != nil {
		return "", err
	}
	for _, exp := range dir.Experiments() {
		rows := flattenExperiment(exp)
		if len(rows) == 0 {
			continue
		}
		var buf bytes.Buffer
		if err := encodePeaksCSV(&buf, rows); err != nil {
			return "", err
		}
		if _, err := h.Documents.Put(ctx, blob.PeaksKey(runID, exp.ID), &buf, blob.PutOptions{
			ContentType: "text/csv",
			Metadata:    map[string]string{"run": runID, "experiment": exp.ID},
		}); err != nil {
			return "", err
		}
	}
	return key, nil
}

func (h *Handler) handleScanList(w http.ResponseWriter, r *http.Request) {
	runs, err := h.Runs.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []registry.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	run, ok, err := h.Runs.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("get run: %v", err))
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}

	switch {
	case len(segments) == 1:
		writeJSON(w, http.StatusOK, map[string]any{"run": run})
	case len(segments) == 2 && segments[1] == "document":
		h.serveDocument(w, r, run)
	case len(segments) == 2 && segments[1] == "export":
		h.serveExport(w, r, run)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, run registry.Run) {
	if h.Documents == nil || run.DocumentKey == "" {
		writeError(w, http.StatusNotFound, "run has no stored document")
		return
	}
	info, rc, err := h.Documents.Get(r.Context(), run.DocumentKey)
	if err != nil {
		writeError(w, http.StatusNotFound, "run has no stored document")
		return
	}
	defer rc.Close()
	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func (h *Handler) serveExport(w http.ResponseWriter, r *http.Request, run registry.Run) {
	format := negotiateFormat(r)
	if format == "" {
		writeError(w, http.StatusNotAcceptable, "requested format not supported")
		return
	}
	if h.Documents == nil || run.DocumentKey == "" {
		writeError(w, http.StatusNotFound, "run has no stored peaks")
		return
	}

	rows, err := h.collectPeaks(r.Context(), run.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("collect peaks: %v", err))
		return
	}

	if format == "csv" {
		filename := fmt.Sprintf("nmr-peaks-%s.csv", run.ID)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_ = encodePeaksCSV(w, rows)
		return
	}
	if rows == nil {
		rows = []PeakRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": run.ID, "peaks": rows})
}

// collectPeaks merges the stored per-experiment peak tables, in key order.
func (h *Handler) collectPeaks(ctx context.Context, runID string) ([]PeakRow, error) {
	infos, err := h.Documents.List(ctx, blob.PeaksPrefix(runID))
	if err != nil {
		return nil, err
	}
	var rows []PeakRow
	for _, info := range infos {
		_, rc, err := h.Documents.Get(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		parsed, err := parsePeaksCSV(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Key, err)
		}
		rows = append(rows, parsed...)
	}
	return rows, nil
}

// negotiateFormat picks the export format from the query parameter, then the
// Accept header. JSON is the default; anything unrecognized is rejected.
func negotiateFormat(r *http.Request) string {
	wanted := strings.ToLower(r.URL.Query().Get("format"))
	if wanted == "" {
		if strings.Contains(r.Header.Get("Accept"), "text/csv") {
			return "csv"
		}
		return "json"
	}
	switch wanted {
	case "csv", "json":
		return wanted
	}
	return ""
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
