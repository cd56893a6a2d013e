package fetcher

import (
	"context"
	"io"
	"strings"
)

// Router dispatches a source identifier to the fetcher for its scheme:
// http(s):// to HTTP, ftp:// to FTP, anything else to the local filesystem.
type Router struct {
	HTTP  Fetcher
	FTP   Fetcher
	Local Fetcher
}

// NewRouter builds a Router from the given transport options.
func NewRouter(httpOpts HTTPOptions, ftpOpts FTPOptions) *Router {
	return &Router{
		HTTP:  NewHTTPFetcher(httpOpts),
		FTP:   NewFTPFetcher(ftpOpts),
		Local: LocalFetcher{},
	}
}

// Download implements Fetcher.
func (r *Router) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	return r.route(id).Download(ctx, id)
}

func (r *Router) route(id string) Fetcher {
	lower := strings.ToLower(id)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return r.HTTP
	case strings.HasPrefix(lower, "ftp://"):
		return r.FTP
	default:
		return r.Local
	}
}

// IsRemote reports whether id names a network source.
func IsRemote(id string) bool {
	lower := strings.ToLower(id)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "ftp://")
}
