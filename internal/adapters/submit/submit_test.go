package submit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nmrcore/internal/document"
	"nmrcore/pkg/domain"
)

func sampleDocument(t *testing.T) *document.Document {
	t.Helper()
	dir := domain.NewDirectory("/data/sample")
	dir.Add(&domain.Experiment{
		ID:           "10",
		Dims:         1,
		Nuclei:       []string{"1H"},
		PulseProgram: "zg30",
		Type:         domain.TypeH1_1D,
		HasPeaks:     true,
		ProcData: []domain.ProcessedData{{
			ID:       "1",
			Peaks:    []domain.Peak{{F1: 7.26, Intensity: 3.0}},
			HasPeaks: true,
		}},
	})
	doc, err := document.NewBuilder(dir).Build(document.DefaultSelections(dir))
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	return doc
}

func TestSubmitPostsDocument(t *testing.T) {
	doc := sampleDocument(t)

	var gotPath, gotContentType, gotAgent string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAgent = r.Header.Get("User-Agent")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id":"sub-42","status":"queued"}`))
	}))
	defer srv.Close()

	client := &Client{BaseURL: srv.URL + "/", UserAgent: "nmrconvert/1.0"}
	receipt, err := client.Submit(context.Background(), doc)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.ID != "sub-42" || receipt.Status != "queued" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if gotPath != "/api/v1/structures" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("content type = %q", gotContentType)
	}
	if gotAgent != "nmrconvert/1.0" {
		t.Fatalf("user agent = %q", gotAgent)
	}
	if _, ok := gotBody["exptIdentifiers"]; !ok {
		t.Fatalf("posted document missing exptIdentifiers: %v", gotBody)
	}
}

func TestSubmitReportsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte("molecule rejected"))
	}))
	defer srv.Close()

	client := &Client{BaseURL: srv.URL}
	_, err := client.Submit(context.Background(), sampleDocument(t))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want StatusError", err)
	}
	if statusErr.Code != http.StatusUnprocessableEntity || statusErr.Body != "molecule rejected" {
		t.Fatalf("status error = %+v", statusErr)
	}
	if !strings.Contains(statusErr.Error(), "422") {
		t.Fatalf("message = %q", statusErr.Error())
	}
}

func TestSubmitTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := &Client{BaseURL: srv.URL}
	_, err := client.Submit(context.Background(), sampleDocument(t))
	if err == nil {
		t.Fatalf("expected transport error")
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("transport failure misreported as status error: %v", err)
	}
}

func TestSubmitValidatesInput(t *testing.T) {
	client := &Client{}
	if _, err := client.Submit(context.Background(), sampleDocument(t)); err == nil || !strings.Contains(err.Error(), "base URL") {
		t.Fatalf("missing base url: %v", err)
	}
	client.BaseURL = "http://localhost:1"
	if _, err := client.Submit(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "nil document") {
		t.Fatalf("nil document: %v", err)
	}
}
