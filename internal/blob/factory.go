package blob

import (
	"context"
	"fmt"
	"os"
)

// Open selects a Store implementation using environment variables.
//
//	NMRCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	NMRCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./documents)
//	(S3 specific variables documented in the s3 driver)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("NMRCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	root := os.Getenv("NMRCORE_BLOB_FS_ROOT")
	return OpenDriver(ctx, Driver(driver), root)
}

// OpenDriver selects a Store by explicit driver name, for callers that take
// the choice from flags rather than the environment. The root argument only
// applies to the filesystem driver.
func OpenDriver(ctx context.Context, driver Driver, root string) (Store, error) {
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(root)
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
