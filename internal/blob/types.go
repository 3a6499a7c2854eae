// Package blob is the seam between document producers and the storage
// backends. Callers depend on the Store interface here; the infra drivers
// stay behind this package.
package blob

import (
	"nmrcore/internal/blob/core"
)

type (
	// Driver identifies a storage backend driver.
	Driver = core.Driver
	// PutOptions configures a document write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored document metadata.
	Info = core.Info
	// Store is the interface implemented by the storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation the driver does not provide.
var ErrUnsupported = core.ErrUnsupported
