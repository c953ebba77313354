package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/gekaixing/create-next-saas/pkg/types"
)

// isolate resets viper's global state and moves into an empty directory so
// no stray config file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultTemplate, cfg.Template)
	assert.Equal(t, "my-app", cfg.DefaultName)
	assert.Equal(t, "tar", cfg.FetchMode)
	assert.False(t, cfg.Cache)
	assert.True(t, cfg.Force)
	assert.Equal(t, 2*time.Minute, cfg.HTTPTimeout)
	assert.Equal(t, "npm", cfg.DefaultPackageManager)
	assert.Equal(t, "git", cfg.VCS)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.CacheDir)
}

func TestLoad_File(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := `template: acme/starter#v2
fetch_mode: git
vcs: embedded
http_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "acme/starter#v2", cfg.Template)
	assert.Equal(t, "git", cfg.FetchMode)
	assert.Equal(t, "embedded", cfg.VCS)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, path, GetConfiguredPath())
}

func TestLoad_Env(t *testing.T) {
	isolate(t)
	t.Setenv("CREATE_NEXT_SAAS_TEMPLATE", "gitlab:group/tpl")
	t.Setenv("CREATE_NEXT_SAAS_SKIP_INSTALL", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gitlab:group/tpl", cfg.Template)
	assert.True(t, cfg.SkipInstall)
}

func TestValidate(t *testing.T) {
	valid := func() *types.Config {
		return &types.Config{
			Template:              DefaultTemplate,
			DefaultName:           "my-app",
			FetchMode:             "tar",
			HTTPTimeout:           time.Minute,
			DefaultPackageManager: "npm",
			VCS:                   "git",
			LogLevel:              "info",
		}
	}

	require.NoError(t, validate(valid()))

	tests := []struct {
		name   string
		mutate func(*types.Config)
		errMsg string
	}{
		{"empty template", func(c *types.Config) { c.Template = " " }, "template"},
		{"empty default name", func(c *types.Config) { c.DefaultName = "" }, "default_name"},
		{"bad fetch mode", func(c *types.Config) { c.FetchMode = "svn" }, "fetch_mode"},
		{"cache without dir", func(c *types.Config) { c.Cache = true }, "cache_dir"},
		{"zero timeout", func(c *types.Config) { c.HTTPTimeout = 0 }, "http_timeout"},
		{"no package manager", func(c *types.Config) { c.DefaultPackageManager = "" }, "default_package_manager"},
		{"bad vcs", func(c *types.Config) { c.VCS = "hg" }, "vcs"},
		{"bad log level", func(c *types.Config) { c.LogLevel = "trace" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := validate(c)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWriteExample(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "create-next-saas.yaml")
	require.NoError(t, WriteExample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# create-next-saas configuration file")

	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.Equal(t, DefaultTemplate, parsed["template"])
	assert.Equal(t, "2m0s", parsed["http_timeout"])

	// The example must load back cleanly.
	viper.Reset()
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplate, cfg.Template)
	assert.Equal(t, 2*time.Minute, cfg.HTTPTimeout)
}
