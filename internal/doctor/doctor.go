// Package doctor checks that the tools and network access a scaffolding run
// depends on are available.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/gekaixing/create-next-saas/internal/template"
	"github.com/gekaixing/create-next-saas/internal/vcs"
	"github.com/gekaixing/create-next-saas/pkg/types"
)

// Doctor runs environment checks.
type Doctor struct {
	client   *http.Client
	lookPath func(string) (string, error)
	// BaseURL replaces the template host's root when set.
	BaseURL string
}

// New creates a Doctor that uses client for network checks.
func New(client *http.Client) *Doctor {
	if client == nil {
		client = http.DefaultClient
	}
	return &Doctor{client: client, lookPath: exec.LookPath}
}

// Check runs every check for cfg and the detected package manager.
func (d *Doctor) Check(ctx context.Context, cfg *types.Config, packageManager string) []*types.HealthStatus {
	statuses := []*types.HealthStatus{
		d.checkBinary("Git", "git", cfg.VCS != vcs.KindGit),
	}
	if !cfg.SkipInstall {
		statuses = append(statuses, d.checkBinary(fmt.Sprintf("Package manager (%s)", packageManager), packageManager, false))
	}
	statuses = append(statuses, d.checkTemplate(ctx, cfg))
	return statuses
}

// Healthy reports whether every status is healthy.
func Healthy(statuses []*types.HealthStatus) bool {
	for _, s := range statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

func (d *Doctor) checkBinary(name, binary string, optional bool) *types.HealthStatus {
	status := &types.HealthStatus{Name: name}

	path, err := d.lookPath(binary)
	switch {
	case err == nil:
		status.Healthy = true
		status.Message = path
	case optional:
		status.Healthy = true
		status.Message = "not found, not required by current configuration"
	default:
		status.Message = fmt.Sprintf("%s not found in PATH", binary)
	}
	return status
}

func (d *Doctor) checkTemplate(ctx context.Context, cfg *types.Config) *types.HealthStatus {
	status := &types.HealthStatus{Name: fmt.Sprintf("Template (%s)", cfg.Template)}

	source, err := template.ParseSource(cfg.Template)
	if err != nil {
		status.Message = err.Error()
		return status
	}

	start := time.Now()
	if cfg.FetchMode == template.ModeGit {
		err = d.listRemote(ctx, source.CloneURL(d.BaseURL))
	} else {
		err = d.headArchive(ctx, source.ArchiveURL(d.BaseURL))
	}
	status.Latency = time.Since(start).String()

	if err != nil {
		status.Message = err.Error()
		return status
	}
	status.Healthy = true
	status.Message = "reachable"
	return status
}

func (d *Doctor) headArchive(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "create-next-saas")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", url, err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}
	return nil
}

// listRemote performs the equivalent of `git ls-remote` without a git binary.
func (d *Doctor) listRemote(ctx context.Context, url string) error {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "template",
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return fmt.Errorf("listing %s: %w", url, err)
	}
	if len(refs) == 0 {
		return fmt.Errorf("%s has no references", url)
	}
	return nil
}
