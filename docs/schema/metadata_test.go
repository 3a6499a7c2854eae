package schema

import (
	"encoding/json"
	"testing"

	"nmrcore/docs/schema/openapi"
)

func TestAPIInfoMatchesEmbeddedSpec(t *testing.T) {
	got, err := APIInfo()
	if err != nil {
		t.Fatalf("APIInfo: %v", err)
	}
	if got.Title == "" || got.Version == "" {
		t.Fatalf("expected title and version, got %+v", got)
	}

	var doc specDoc
	if err := json.Unmarshal(openapi.APISpec, &doc); err != nil {
		t.Fatalf("unmarshal spec: %v", err)
	}
	if got != doc.Info {
		t.Fatalf("info mismatch: got %+v want %+v", got, doc.Info)
	}

	again, err := APIInfo()
	if err != nil || again != got {
		t.Fatalf("second call diverged: %+v (%v)", again, err)
	}
}

func TestAPIVersion(t *testing.T) {
	version, err := APIVersion()
	if err != nil {
		t.Fatalf("APIVersion: %v", err)
	}
	if version == "" {
		t.Fatal("expected non-empty version")
	}
}
