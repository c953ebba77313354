// Package bootstrap creates a new project from a remote template. A run
// fetches the template, installs its dependencies and initializes version
// control, strictly in that order, stopping at the first failure.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gekaixing/create-next-saas/internal/pkgmanager"
	"github.com/gekaixing/create-next-saas/internal/vcs"
	"github.com/gekaixing/create-next-saas/pkg/types"
)

var (
	// ErrProjectDirMissing is returned when the fetch reported success but
	// left no project directory behind.
	ErrProjectDirMissing = errors.New("project directory was not created")
	// ErrInvalidProjectName is returned for names that are not a single
	// directory name.
	ErrInvalidProjectName = errors.New("invalid project name")
)

// Options configures a Bootstrapper.
type Options struct {
	// Template is the template source identifier, e.g. "user/repo#main".
	Template string
	Fetch    types.FetchOptions
	// SkipInstall leaves dependency installation to the user.
	SkipInstall bool
}

// Bootstrapper runs the scaffolding phases.
type Bootstrapper struct {
	fetcher  types.TemplateFetcher
	runner   types.CommandRunner
	vcs      types.VCSInitializer
	progress types.Progress
	out      io.Writer
	opts     Options
}

// New creates a Bootstrapper. Completion instructions are written to out.
func New(fetcher types.TemplateFetcher, runner types.CommandRunner, initializer types.VCSInitializer, progress types.Progress, out io.Writer, opts Options) *Bootstrapper {
	return &Bootstrapper{
		fetcher:  fetcher,
		runner:   runner,
		vcs:      initializer,
		progress: progress,
		out:      out,
		opts:     opts,
	}
}

// ValidateProjectName checks that name can be used as a single directory
// name below the working directory.
func ValidateProjectName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidProjectName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q refers to an existing directory", ErrInvalidProjectName, name)
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, os.PathSeparator):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidProjectName, name)
	case filepath.IsAbs(name) || filepath.VolumeName(name) != "":
		return fmt.Errorf("%w: %q must not be an absolute path", ErrInvalidProjectName, name)
	}
	return nil
}

// NewSession validates projectName and resolves it against cwd.
func NewSession(cwd, projectName, packageManager string) (*types.Session, error) {
	if err := ValidateProjectName(projectName); err != nil {
		return nil, err
	}
	return &types.Session{
		ProjectName:    projectName,
		ProjectPath:    filepath.Join(cwd, projectName),
		PackageManager: packageManager,
		Phase:          types.PhaseFetching,
	}, nil
}

// Run executes every phase for s. On failure the progress indicator is marked
// failed, s.Phase is set to PhaseFailed and the phase's error is returned.
func (b *Bootstrapper) Run(ctx context.Context, s *types.Session) error {
	fmt.Fprintf(b.out, "🚀 Creating project: %s\n", s.ProjectName)

	if err := b.runPhases(ctx, s); err != nil {
		s.Phase = types.PhaseFailed
		// A missing directory has already been reported by the fetch phase.
		if !errors.Is(err, ErrProjectDirMissing) {
			b.progress.Fail("Project creation failed.")
		}
		slog.Debug("bootstrap failed", "project", s.ProjectName, "error", err)
		return err
	}

	s.Phase = types.PhaseDone
	b.printSummary(s)
	return nil
}

func (b *Bootstrapper) runPhases(ctx context.Context, s *types.Session) error {
	phases := []struct {
		phase types.Phase
		run   func(context.Context, *types.Session) error
	}{
		{types.PhaseFetching, b.fetchTemplate},
		{types.PhaseInstalling, b.installDependencies},
		{types.PhaseInitializingVCS, b.initVCS},
	}

	for _, p := range phases {
		s.Phase = p.phase
		slog.Debug("entering phase", "phase", p.phase.String(), "path", s.ProjectPath)
		if err := p.run(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bootstrapper) fetchTemplate(ctx context.Context, s *types.Session) error {
	b.progress.Start("Downloading template...")

	if err := b.fetcher.Fetch(ctx, b.opts.Template, s.ProjectPath, b.opts.Fetch); err != nil {
		return fmt.Errorf("downloading template %s: %w", b.opts.Template, err)
	}

	// The fetcher may report success without producing anything.
	if info, err := os.Stat(s.ProjectPath); err != nil || !info.IsDir() {
		b.progress.Fail("Failed to create project directory.")
		return fmt.Errorf("%w: %s", ErrProjectDirMissing, s.ProjectPath)
	}

	b.progress.Succeed("Template downloaded!")
	return nil
}

func (b *Bootstrapper) installDependencies(ctx context.Context, s *types.Session) error {
	if b.opts.SkipInstall {
		b.progress.Succeed("Skipped dependency install.")
		return nil
	}

	b.progress.Start("Installing dependencies...")

	pm := pkgmanager.PackageManager{Name: s.PackageManager}
	err := b.runner.Run(ctx, types.Command{
		Name:    pm.Name,
		Args:    pm.InstallArgs(),
		Dir:     s.ProjectPath,
		Inherit: true,
	})
	if err != nil {
		return fmt.Errorf("installing dependencies with %s: %w", pm.Name, err)
	}

	b.progress.Succeed("Dependencies installed!")
	return nil
}

func (b *Bootstrapper) initVCS(ctx context.Context, s *types.Session) error {
	if b.vcs.Name() == vcs.KindNone {
		b.progress.Succeed("Skipped version control.")
		return nil
	}

	b.progress.Start("Initializing Git...")
	if err := b.vcs.Init(ctx, s.ProjectPath); err != nil {
		return fmt.Errorf("initializing git: %w", err)
	}
	b.progress.Succeed("Git initialized!")
	return nil
}

func (b *Bootstrapper) printSummary(s *types.Session) {
	pm := pkgmanager.PackageManager{Name: s.PackageManager}

	fmt.Fprintf(b.out, "\n✅ Project setup completed!\n\n")
	fmt.Fprintf(b.out, "👉 Move into the project:\n   cd %s\n\n", s.ProjectName)
	if b.opts.SkipInstall {
		fmt.Fprintf(b.out, "👉 Install dependencies:\n   %s %s\n\n", pm.Name, strings.Join(pm.InstallArgs(), " "))
	}
	fmt.Fprintf(b.out, "👉 Start development server:\n   %s\n\n", pm.DevCommand())
}
