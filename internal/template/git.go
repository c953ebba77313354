package template

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

// Git fetches templates by cloning the repository with go-git. The clone's
// history is discarded; only the working tree is copied to the destination.
type Git struct {
	// BaseURL replaces the site root when set; the clone URL becomes
	// BaseURL/user/repo.
	BaseURL string
	// Shallow limits the clone to the tip commit.
	Shallow bool
}

// NewGit creates a git fetcher that performs shallow clones.
func NewGit() *Git {
	return &Git{Shallow: true}
}

// Fetch clones src into a scratch directory and copies the template into dest.
func (g *Git) Fetch(ctx context.Context, src, dest string, opts types.FetchOptions) error {
	source, err := ParseSource(src)
	if err != nil {
		return err
	}

	if err := checkDestination(dest, opts.Force); err != nil {
		return err
	}

	scratch, err := os.MkdirTemp("", "create-next-saas-clone-*")
	if err != nil {
		return fmt.Errorf("creating clone directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	if err := g.clone(ctx, source, scratch); err != nil {
		return err
	}

	root := scratch
	if source.Subdir != "" {
		// Symlinks inside the clone cannot lead out of it.
		root, err = securejoin.SecureJoin(scratch, filepath.FromSlash(source.Subdir))
		if err != nil {
			return fmt.Errorf("resolving subdirectory %s: %w", source.Subdir, err)
		}
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", ErrSubdirNotFound, source.Subdir)
		}
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("creating destination %s: %w", dest, err)
	}

	n, err := copyTree(root, dest)
	if err != nil {
		return fmt.Errorf("copying template into %s: %w", dest, err)
	}

	slog.Debug("template copied", "source", source.String(), "dest", dest, "entries", n)
	return nil
}

// clone tries the ref as a branch, then as a tag. HEAD clones the default
// branch.
func (g *Git) clone(ctx context.Context, source Source, dir string) error {
	url := source.CloneURL(g.BaseURL)

	var refs []plumbing.ReferenceName
	if source.Ref == defaultRef {
		refs = []plumbing.ReferenceName{""}
	} else {
		refs = []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(source.Ref),
			plumbing.NewTagReferenceName(source.Ref),
		}
	}

	var lastErr error
	for _, ref := range refs {
		opts := &git.CloneOptions{
			URL:           url,
			ReferenceName: ref,
			SingleBranch:  true,
			Tags:          git.NoTags,
		}
		if g.Shallow {
			opts.Depth = 1
		}

		slog.Debug("cloning template", "url", url, "ref", ref.String())
		_, err := git.PlainCloneContext(ctx, dir, false, opts)
		if err == nil {
			return nil
		}
		lastErr = err

		if !errors.Is(err, plumbing.ErrReferenceNotFound) && !isNoMatchingRef(err) {
			break
		}
		// A failed clone leaves a partial repository behind.
		if err := resetDir(dir); err != nil {
			return err
		}
	}

	if errors.Is(lastErr, plumbing.ErrReferenceNotFound) || isNoMatchingRef(lastErr) {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, source)
	}
	return fmt.Errorf("cloning %s: %w", url, lastErr)
}

func isNoMatchingRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cleaning clone directory: %w", err)
	}
	return os.MkdirAll(dir, 0755)
}

// copyTree copies the contents of src into dest, skipping .git and
// overwriting existing files.
func copyTree(src, dest string) (int, error) {
	copied := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target, err := confinedPath(dest, filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			if err := writeSymlink(target, link); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			if err := copyFile(p, target, info.Mode().Perm()); err != nil {
				return err
			}
		default:
			return nil
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(src, target string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return writeFile(target, in, perm)
}
