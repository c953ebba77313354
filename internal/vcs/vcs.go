// Package vcs initializes version control in a freshly scaffolded project.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

// Supported initializer kinds.
const (
	KindGit      = "git"
	KindEmbedded = "embedded"
	KindNone     = "none"
)

// GitCLI runs `git init` through a command runner.
type GitCLI struct {
	Runner types.CommandRunner
}

// Init runs `git init` with dir as the working directory.
func (g *GitCLI) Init(ctx context.Context, dir string) error {
	return g.Runner.Run(ctx, types.Command{
		Name: "git",
		Args: []string{"init"},
		Dir:  dir,
	})
}

func (g *GitCLI) Name() string { return KindGit }

// Embedded creates the repository with go-git and needs no git binary.
type Embedded struct{}

// Init creates a non-bare repository in dir. An existing repository is left
// as is, matching `git init` on a re-run.
func (Embedded) Init(_ context.Context, dir string) error {
	_, err := git.PlainInit(dir, false)
	switch {
	case errors.Is(err, git.ErrRepositoryAlreadyExists):
		slog.Debug("repository already exists", "dir", dir)
		return nil
	case err != nil:
		return fmt.Errorf("initializing repository in %s: %w", dir, err)
	}
	return nil
}

func (Embedded) Name() string { return KindEmbedded }

// None leaves the project without version control.
type None struct{}

func (None) Init(context.Context, string) error { return nil }

func (None) Name() string { return KindNone }

// New returns the initializer for kind.
func New(kind string, runner types.CommandRunner) (types.VCSInitializer, error) {
	switch kind {
	case KindGit, "":
		return &GitCLI{Runner: runner}, nil
	case KindEmbedded:
		return Embedded{}, nil
	case KindNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown vcs %q: supported values are %q, %q and %q", kind, KindGit, KindEmbedded, KindNone)
	}
}
