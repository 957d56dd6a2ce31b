package interfaces

import "context"

// ReportStore persists the JSON artifacts written by the tools
type ReportStore interface {
	// SaveJSON writes v as indented JSON to path, creating parent directories
	SaveJSON(path string, v interface{}) error

	// LoadJSON reads path into v
	LoadJSON(path string, v interface{}) error
}

// Downloader fetches a remote file to disk
type Downloader interface {
	Download(ctx context.Context, url, dst string) error
}
