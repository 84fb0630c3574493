package metrics

import "time"

// FileStoreMetrics provides observability for payload sinks.
//
// This interface is optional - stores fall back to NewNoopFileStoreMetrics
// when none is configured.
type FileStoreMetrics interface {
	// ObserveOperation records a completed store operation.
	//
	// Parameters:
	//   - store: store type ("memory", "filesystem", "badger", "s3")
	//   - operation: "put", "get", "list" or "delete"
	//   - duration: Time taken by the operation
	//   - bytes: payload bytes moved (0 for metadata-only operations)
	//   - err: Error if the operation failed, nil if successful
	ObserveOperation(store, operation string, duration time.Duration, bytes int, err error)
}

// NewNoopFileStoreMetrics returns a FileStoreMetrics that discards everything.
func NewNoopFileStoreMetrics() FileStoreMetrics {
	return noopFileStoreMetrics{}
}

type noopFileStoreMetrics struct{}

func (noopFileStoreMetrics) ObserveOperation(store, operation string, duration time.Duration, bytes int, err error) {
}
