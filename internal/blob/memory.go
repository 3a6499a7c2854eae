package blob

import (
	memorystore "nmrcore/internal/infra/blob/memory"
)

// NewMemory returns an in-process Store for tests and one-shot conversions.
func NewMemory() Store { return memorystore.New() }
