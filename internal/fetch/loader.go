package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ErrUnsupportedSource is returned for locations that are neither a local
// path nor an http(s) URL.
var ErrUnsupportedSource = errors.New("unsupported source")

// Loader reads documents from local paths, file:// URLs or http(s) URLs.
type Loader struct {
	client *Client
}

// NewLoader creates a Loader. Remote locations fail when client is nil.
func NewLoader(client *Client) *Loader {
	return &Loader{client: client}
}

// Load returns the full contents of location.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrUnsupportedSource)
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return readFile(location)
	}

	switch u.Scheme {
	case "file":
		return readFile(u.Path)
	case "http", "https":
		if l.client == nil {
			return nil, fmt.Errorf("%w: no http client for %s", ErrUnsupportedSource, u.Host)
		}
		data, err := l.client.Get(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
