package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// LocalFetcher opens files from the local filesystem. It accepts bare paths
// and file:// URLs.
type LocalFetcher struct{}

// Download opens the file named by path.
func (LocalFetcher) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "local: context")
	}

	p, err := localPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrapf(err, "local: open %s", p)
	}
	return f, nil
}

// localPath strips a file:// scheme when present.
func localPath(id string) (string, error) {
	if !strings.HasPrefix(id, "file://") {
		return id, nil
	}
	u, err := url.Parse(id)
	if err != nil {
		return "", eris.Wrap(err, "local: parse file url")
	}
	if u.Path == "" {
		return "", eris.Errorf("local: empty path in %q", id)
	}
	return u.Path, nil
}
