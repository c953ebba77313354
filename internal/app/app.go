// Package app wires configuration into the components that create a project.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gekaixing/create-next-saas/internal/bootstrap"
	"github.com/gekaixing/create-next-saas/internal/doctor"
	"github.com/gekaixing/create-next-saas/internal/progress"
	"github.com/gekaixing/create-next-saas/internal/runner"
	"github.com/gekaixing/create-next-saas/internal/template"
	"github.com/gekaixing/create-next-saas/internal/vcs"
	"github.com/gekaixing/create-next-saas/pkg/types"
)

// App represents a configured create-next-saas instance.
type App struct {
	Config       *types.Config
	Bootstrapper *bootstrap.Bootstrapper
	Doctor       *doctor.Doctor
}

// Options overrides parts of the wiring. The zero value is suitable for
// normal use.
type Options struct {
	// Out receives progress and completion messages. Defaults to stdout.
	Out io.Writer
	// BaseURL replaces the template host's root, for mirrors and tests.
	BaseURL string
	// Runner executes external commands. Defaults to runner.New().
	Runner types.CommandRunner
}

// New creates an App from cfg.
func New(cfg *types.Config, opts Options) (*App, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	// Initialize template fetcher
	fetcher, err := template.NewFetcher(cfg.FetchMode, client, cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize template fetcher: %w", err)
	}
	if opts.BaseURL != "" {
		switch f := fetcher.(type) {
		case *template.Tarball:
			f.BaseURL = opts.BaseURL
		case *template.Git:
			f.BaseURL = opts.BaseURL
		}
	}

	// Initialize command runner and version control
	cmdRunner := opts.Runner
	if cmdRunner == nil {
		cmdRunner = runner.New()
	}

	initializer, err := vcs.New(cfg.VCS, cmdRunner)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize version control: %w", err)
	}

	// Assemble the bootstrapper
	bootstrapper := bootstrap.New(fetcher, cmdRunner, initializer, progress.New(opts.Out), opts.Out, bootstrap.Options{
		Template: cfg.Template,
		Fetch: types.FetchOptions{
			Cache: cfg.Cache,
			Force: cfg.Force,
		},
		SkipInstall: cfg.SkipInstall,
	})

	// Environment checks share the fetcher's HTTP client
	checker := doctor.New(client)
	checker.BaseURL = opts.BaseURL

	slog.Debug("app initialized",
		"template", cfg.Template,
		"fetch_mode", cfg.FetchMode,
		"vcs", initializer.Name(),
		"skip_install", cfg.SkipInstall)

	return &App{
		Config:       cfg,
		Bootstrapper: bootstrapper,
		Doctor:       checker,
	}, nil
}

// Create runs the scaffolding phases for session.
func (a *App) Create(ctx context.Context, session *types.Session) error {
	return a.Bootstrapper.Run(ctx, session)
}

// HealthCheck checks the tools and network access a run depends on.
func (a *App) HealthCheck(ctx context.Context, packageManager string) []*types.HealthStatus {
	return a.Doctor.Check(ctx, a.Config, packageManager)
}
