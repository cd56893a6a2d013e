// Package fetcher retrieves source artifacts over HTTP(S), FTP, or the local
// filesystem and decodes the container formats they ship in (ZIP, XLSX).
package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for retrieving a source artifact.
type Fetcher interface {
	// Download opens the source identified by id and returns its body.
	// The caller must close the returned reader.
	Download(ctx context.Context, id string) (io.ReadCloser, error)
}

// ReadAll downloads id with f and returns the full body.
func ReadAll(ctx context.Context, f Fetcher, id string) ([]byte, error) {
	body, err := f.Download(ctx, id)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	return io.ReadAll(body)
}
