package template

import (
	"fmt"
	"net/http"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

// Fetch modes.
const (
	ModeTar = "tar"
	ModeGit = "git"
)

// NewFetcher returns the fetcher for mode.
func NewFetcher(mode string, client *http.Client, cacheDir string) (types.TemplateFetcher, error) {
	switch mode {
	case ModeTar, "":
		return NewTarball(client, cacheDir), nil
	case ModeGit:
		return NewGit(), nil
	default:
		return nil, fmt.Errorf("unknown fetch mode %q: supported modes are %q and %q", mode, ModeTar, ModeGit)
	}
}
