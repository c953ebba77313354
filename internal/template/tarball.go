package template

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

var (
	// ErrTemplateNotFound is returned when the host has no archive for the ref.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrDestinationNotEmpty is returned when force is off and the
	// destination already has files in it.
	ErrDestinationNotEmpty = errors.New("destination directory is not empty")
	// ErrSubdirNotFound is returned when the requested subdirectory is absent.
	ErrSubdirNotFound = errors.New("subdirectory not found in template")
)

const userAgent = "create-next-saas"

// Tarball fetches templates as gzipped tar archives over HTTP.
type Tarball struct {
	client   *http.Client
	cacheDir string
	// BaseURL replaces the site's https root when set.
	BaseURL string
}

// NewTarball creates a tarball fetcher. Archives are kept under cacheDir when
// a fetch asks for caching.
func NewTarball(client *http.Client, cacheDir string) *Tarball {
	if client == nil {
		client = http.DefaultClient
	}
	return &Tarball{client: client, cacheDir: cacheDir}
}

// Fetch downloads the archive for src and extracts it into dest.
func (t *Tarball) Fetch(ctx context.Context, src, dest string, opts types.FetchOptions) error {
	source, err := ParseSource(src)
	if err != nil {
		return err
	}

	if err := checkDestination(dest, opts.Force); err != nil {
		return err
	}

	archive, err := t.open(ctx, source, opts.Cache)
	if err != nil {
		return err
	}
	defer archive.Close()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating destination %s: %w", dest, err)
	}

	n, err := extract(archive, dest, source.Subdir)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", source, err)
	}
	if n == 0 && source.Subdir != "" {
		return fmt.Errorf("%w: %s", ErrSubdirNotFound, source.Subdir)
	}

	slog.Debug("template extracted", "source", source.String(), "dest", dest, "entries", n)
	return nil
}

// open returns a reader over the gzipped archive, serving it from the cache
// when allowed and present.
func (t *Tarball) open(ctx context.Context, source Source, useCache bool) (io.ReadCloser, error) {
	cachePath := t.cachePath(source)
	if useCache && cachePath != "" {
		if f, err := os.Open(cachePath); err == nil {
			slog.Debug("using cached template archive", "path", cachePath)
			return f, nil
		}
	}

	body, err := t.download(ctx, source)
	if err != nil {
		return nil, err
	}
	if !useCache || cachePath == "" {
		return body, nil
	}
	defer body.Close()

	if err := writeCache(cachePath, body); err != nil {
		return nil, err
	}
	return os.Open(cachePath)
}

func (t *Tarball) download(ctx context.Context, source Source) (io.ReadCloser, error) {
	url := source.ArchiveURL(t.BaseURL)
	slog.Debug("downloading template archive", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, source)
	case resp.StatusCode != http.StatusOK:
		resp.Body.Close()
		return nil, fmt.Errorf("download of %s returned status %d", url, resp.StatusCode)
	}

	return resp.Body, nil
}

func (t *Tarball) cachePath(source Source) string {
	if t.cacheDir == "" {
		return ""
	}
	ref := strings.ReplaceAll(source.Ref, "/", "_")
	return filepath.Join(t.cacheDir, source.Site, source.User, source.Name, ref+".tar.gz")
}

// writeCache stores the archive atomically so an interrupted download never
// leaves a truncated file behind.
func writeCache(cachePath string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(cachePath), ".download-*")
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return fmt.Errorf("finalizing cache file: %w", err)
	}
	return nil
}

// extract unpacks a gzipped tar stream into dest, dropping the archive's
// top-level directory and keeping only entries under subdir when set. It
// returns the number of entries written.
func extract(r io.Reader, dest, subdir string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gz.Close()

	prefix := ""
	if subdir != "" {
		prefix = path.Clean(subdir) + "/"
	}

	tr := tar.NewReader(gz)
	written := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("reading tar entry: %w", err)
		}

		rel, ok := relativeName(hdr.Name, prefix)
		if !ok {
			continue
		}

		target, err := confinedPath(dest, rel)
		if err != nil {
			return written, fmt.Errorf("resolving %s: %w", hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return written, fmt.Errorf("creating directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return written, fmt.Errorf("writing %s: %w", rel, err)
			}
		case tar.TypeSymlink:
			if err := writeSymlink(target, hdr.Linkname); err != nil {
				return written, fmt.Errorf("linking %s: %w", rel, err)
			}
		default:
			continue
		}
		written++
	}

	return written, nil
}

// relativeName strips the archive's root directory and the subdir prefix
// from name. It reports false for entries that are not part of the template.
func relativeName(name, prefix string) (string, bool) {
	_, rel, ok := strings.Cut(strings.TrimPrefix(name, "./"), "/")
	if !ok {
		return "", false
	}
	if prefix != "" {
		if !strings.HasPrefix(rel, prefix) {
			return "", false
		}
		rel = strings.TrimPrefix(rel, prefix)
	}
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	if rel == "" {
		return "", false
	}
	return rel, true
}

// confinedPath joins rel onto root with every parent directory resolved inside
// root. The final element is left unresolved so an existing symlink there is
// replaced rather than followed.
func confinedPath(root, rel string) (string, error) {
	parent, err := securejoin.SecureJoin(root, path.Dir(rel))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, path.Base(rel)), nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0644
	}
	// A previous symlink at target would redirect the write.
	if info, err := os.Lstat(target); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSymlink(target, linkname string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	// Only files, links and empty directories are replaced.
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replacing %s with a symlink: %w", target, err)
	}
	return os.Symlink(linkname, target)
}

// checkDestination refuses to write into a non-empty directory unless force
// is set.
func checkDestination(dest string, force bool) error {
	if force {
		return nil
	}
	entries, err := os.ReadDir(dest)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading destination %s: %w", dest, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s", ErrDestinationNotEmpty, dest)
	}
	return nil
}
