// FILE: lixenwraith/tagconf/resource.go
package tagconf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FilePrefix marks an explicit file system location.
const FilePrefix = "file:"

// Resource is a readable location holding configuration text.
type Resource interface {
	Exists(ctx context.Context) bool
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// NewResource picks a resource implementation from the location syntax:
// http(s) URLs, "file:" prefixed paths and plain paths.
func NewResource(location string) Resource {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return URLResource(location)
	default:
		return FileResource(location)
	}
}

// FileResource is a file on the local file system.
type FileResource string

func (f FileResource) path() string {
	return filepath.Clean(strings.TrimPrefix(string(f), FilePrefix))
}

func (f FileResource) Exists(context.Context) bool {
	info, err := os.Stat(f.path())
	return err == nil && !info.IsDir()
}

func (f FileResource) Open(context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, f)
	}
	return file, err
}

func (f FileResource) String() string { return FilePrefix + f.path() }

// URLResource is fetched with an HTTP GET.
type URLResource string

// Client used by URLResource; tests may replace it.
var httpClient = &http.Client{Timeout: DefaultFetchTimeout}

func (u URLResource) Exists(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, string(u), nil)
	if err != nil {
		return false
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusBadRequest
}

func (u URLResource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, string(u), nil)
	if err != nil {
		return nil, fmt.Errorf("invalid resource URL %q: %w", string(u), err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, u)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch %s: %s", u, resp.Status)
	}
	return resp.Body, nil
}

func (u URLResource) String() string { return string(u) }

// FSResource is a named entry in an fs.FS, typically an embed.FS bundled with the binary.
type FSResource struct {
	FS   fs.FS
	Name string
}

func (r FSResource) Exists(context.Context) bool {
	info, err := fs.Stat(r.FS, r.Name)
	return err == nil && !info.IsDir()
}

func (r FSResource) Open(context.Context) (io.ReadCloser, error) {
	file, err := r.FS.Open(r.Name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, r)
	}
	return file, err
}

func (r FSResource) String() string { return "fs:" + r.Name }

// InlineResource serves fixed content.
type InlineResource struct {
	Name    string
	Content string
}

func (r InlineResource) Exists(context.Context) bool { return true }

func (r InlineResource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(r.Content)), nil
}

func (r InlineResource) String() string {
	if r.Name == "" {
		return "inline"
	}
	return "inline:" + r.Name
}

// resourceList is the shared resource handling of file-backed stores.
type resourceList struct {
	logger      *zap.Logger
	maxFileSize int64
	resources   []Resource
}

// SetLogger sets the logger used to report skipped resources.
func (l *resourceList) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// SetMaxFileSize caps the bytes read from one resource. Zero restores the default.
func (l *resourceList) SetMaxFileSize(n int64) {
	l.maxFileSize = n
}

func (l *resourceList) log() *zap.Logger {
	if l.logger == nil {
		return zap.NewNop()
	}
	return l.logger
}

// read returns the content of res. Missing resources are skipped with a
// warning and reported as ok=false.
func (l *resourceList) read(ctx context.Context, res Resource) ([]byte, bool, error) {
	if !res.Exists(ctx) {
		l.log().Warn("skipping missing configuration resource", zap.Stringer("resource", res))
		return nil, false, nil
	}

	rc, err := res.Open(ctx)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			l.log().Warn("skipping missing configuration resource", zap.Stringer("resource", res))
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open %s: %w", res, err)
	}
	defer rc.Close()

	limit := l.maxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", res, err)
	}
	if int64(len(data)) > limit {
		return nil, false, fmt.Errorf("%w: %s exceeds %d bytes", ErrValueSize, res, limit)
	}
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), true, nil
}
