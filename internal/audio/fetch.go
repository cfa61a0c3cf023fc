package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// maxCueBytes bounds how much a single cue download may read.
const maxCueBytes = 64 << 20

// Fetcher retrieves the raw bytes of a cue source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, source string) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

// SourceFetcher reads cues from local paths, file:// URLs and http(s) URLs.
type SourceFetcher struct {
	Client *http.Client
}

// NewSourceFetcher creates a SourceFetcher with a bounded HTTP timeout.
func NewSourceFetcher() *SourceFetcher {
	return &SourceFetcher{Client: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch returns the bytes behind source.
func (f *SourceFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("empty cue source")
	}

	u, err := url.Parse(source)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return f.fetchHTTP(ctx, source)
		case "file":
			return os.ReadFile(u.Path)
		}
	}

	return os.ReadFile(expandPath(source))
}

func (f *SourceFetcher) fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", source, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", source, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCueBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return data, nil
}

// CueSource returns the conventional source for a named cue inside dir: <dir>/<name>.mp3.
func CueSource(dir, name string) string {
	return filepath.Join(dir, name+".mp3")
}

// LocalPath returns the filesystem path behind source, or "" if source is remote.
func LocalPath(source string) string {
	if u, err := url.Parse(source); err == nil {
		switch u.Scheme {
		case "http", "https":
			return ""
		case "file":
			return u.Path
		}
	}
	if strings.HasPrefix(source, BuiltinScheme) {
		return ""
	}
	return expandPath(source)
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
