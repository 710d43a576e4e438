package peaks

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// ObjectFetcher reads an object-storage resource by path.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, objectPath string) (io.ReadCloser, error)
}

// Resolver materializes an audio resource reference as a local file the
// decoder can read. Absolute http(s) URLs are downloaded, data URLs are
// decoded inline, /static/ paths go through object storage, anything else is
// treated as a local path.
type Resolver struct {
	httpClient *http.Client
	objects    ObjectFetcher
	tempDir    string
}

// NewResolver creates a resolver. objects may be nil when no object storage
// is configured.
func NewResolver(objects ObjectFetcher) *Resolver {
	return &Resolver{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		objects:    objects,
		tempDir:    os.TempDir(),
	}
}

// Resolve returns a local file path for the resource plus a cleanup func.
// cleanup is never nil.
func (r *Resolver) Resolve(ctx context.Context, url string) (string, func(), error) {
	noop := func() {}
	switch {
	case url == "":
		return "", noop, fmt.Errorf("empty resource url")

	case strings.HasPrefix(url, "data:"):
		return r.writeTemp(dataURLBytes(url))

	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", noop, err
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return "", noop, fmt.Errorf("fetch %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", noop, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", noop, err
		}
		return r.writeTemp(data, nil)

	case strings.HasPrefix(url, "/static/"), strings.HasPrefix(url, "/streams/"):
		if r.objects == nil {
			return "", noop, fmt.Errorf("no object storage configured for %s", url)
		}
		objectPath := strings.TrimPrefix(url, "/")
		obj, err := r.objects.FetchObject(ctx, objectPath)
		if err != nil {
			return "", noop, fmt.Errorf("object fetch %s: %w", objectPath, err)
		}
		defer obj.Close()
		data, err := io.ReadAll(obj)
		if err != nil {
			return "", noop, err
		}
		return r.writeTemp(data, nil)

	default:
		// Local path; caller keeps ownership, nothing to clean up.
		if _, err := os.Stat(url); err != nil {
			return "", noop, fmt.Errorf("unreadable resource %s: %w", url, err)
		}
		return url, noop, nil
	}
}

func (r *Resolver) writeTemp(data []byte, decodeErr error) (string, func(), error) {
	noop := func() {}
	if decodeErr != nil {
		return "", noop, decodeErr
	}
	f, err := os.CreateTemp(r.tempDir, "cutroom-audio-*")
	if err != nil {
		return "", noop, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", noop, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", noop, err
	}
	name := f.Name()
	return name, func() { os.Remove(name) }, nil
}

// dataURLBytes decodes the payload of a data: URL. Only base64 payloads are
// supported; percent-encoded text data URLs do not occur for audio.
func dataURLBytes(url string) ([]byte, error) {
	comma := strings.IndexByte(url, ',')
	if comma < 0 {
		return nil, fmt.Errorf("malformed data url")
	}
	meta, payload := url[:comma], url[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data url encoding")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data url: %w", err)
	}
	return data, nil
}
