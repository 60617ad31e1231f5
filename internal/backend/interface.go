package backend

import (
	"context"

	"lunchreports/internal/ports"
)

// Backend is the store every binary reads reports from and writes orders to.
type Backend interface {
	ports.Store
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function.
// Publisher is nil when report exports are not configured.
type BackendResult struct {
	Backend   Backend
	Publisher ports.ExportPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
