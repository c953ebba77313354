package doctor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func testConfig() *types.Config {
	return &types.Config{
		Template:  "acme/starter#main",
		FetchMode: "tar",
		VCS:       "git",
	}
}

func TestCheck_AllHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "/acme/starter/archive/main.tar.gz", r.URL.Path)
	}))
	defer server.Close()

	d := New(server.Client())
	d.lookPath = fakeLookPath("git", "npm")
	d.BaseURL = server.URL

	statuses := d.Check(context.Background(), testConfig(), "npm")

	require.Len(t, statuses, 3)
	assert.Equal(t, "Git", statuses[0].Name)
	assert.Equal(t, "Package manager (npm)", statuses[1].Name)
	assert.Equal(t, "Template (acme/starter#main)", statuses[2].Name)
	assert.NotEmpty(t, statuses[2].Latency)
	assert.True(t, Healthy(statuses))
}

func TestCheck_MissingTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	d := New(server.Client())
	d.lookPath = fakeLookPath()
	d.BaseURL = server.URL

	statuses := d.Check(context.Background(), testConfig(), "yarn")

	assert.False(t, statuses[0].Healthy)
	assert.Contains(t, statuses[0].Message, "git not found")
	assert.False(t, statuses[1].Healthy)
	assert.Contains(t, statuses[1].Message, "yarn not found")
	assert.False(t, Healthy(statuses))
}

func TestCheck_GitOptionalForEmbeddedVCS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	d := New(server.Client())
	d.lookPath = fakeLookPath("npm")
	d.BaseURL = server.URL

	cfg := testConfig()
	cfg.VCS = "embedded"
	cfg.SkipInstall = true

	statuses := d.Check(context.Background(), cfg, "npm")

	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Healthy)
	assert.Contains(t, statuses[0].Message, "not required")
}

func TestCheck_TemplateMissing(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	d := New(server.Client())
	d.lookPath = fakeLookPath("git", "npm")
	d.BaseURL = server.URL

	statuses := d.Check(context.Background(), testConfig(), "npm")

	template := statuses[len(statuses)-1]
	assert.False(t, template.Healthy)
	assert.Contains(t, template.Message, "status 404")
}

func TestCheck_InvalidTemplate(t *testing.T) {
	d := New(nil)
	d.lookPath = fakeLookPath("git", "npm")

	cfg := testConfig()
	cfg.Template = "nope"

	statuses := d.Check(context.Background(), cfg, "npm")
	assert.False(t, statuses[len(statuses)-1].Healthy)
}

func TestCheck_GitMode(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "acme", "starter")

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644))
	_, err = wt.Add("a.txt")
	require.NoError(t, err)
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "t", Email: "t@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	d := New(nil)
	d.lookPath = fakeLookPath("git", "npm")
	d.BaseURL = base

	cfg := testConfig()
	cfg.FetchMode = "git"

	statuses := d.Check(context.Background(), cfg, "npm")
	template := statuses[len(statuses)-1]
	assert.True(t, template.Healthy, template.Message)

	cfg.Template = "acme/absent"
	statuses = d.Check(context.Background(), cfg, "npm")
	assert.False(t, statuses[len(statuses)-1].Healthy)
}
