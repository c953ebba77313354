package main

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runMainEnv holds the arguments for main when the test binary re-executes
// itself as the CLI.
const runMainEnv = "NEXT_SAAS_MAIN_TEST_ARGS"

func TestMain(m *testing.M) {
	if args := os.Getenv(runMainEnv); args != "" {
		os.Args = append([]string{"create-next-saas"}, strings.Fields(args)...)
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func runCLI(t *testing.T, args string) (string, int) {
	t.Helper()

	cmd := exec.Command(os.Args[0])
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), runMainEnv+"="+args, "HOME="+t.TempDir())

	out, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return string(out), exitErr.ExitCode()
	}
	require.NoError(t, err)
	return string(out), 0
}

func TestExitCode_Failure(t *testing.T) {
	out, code := runCLI(t, "../escape --skip-install --vcs none")

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid project name")
}

func TestExitCode_BadFlag(t *testing.T) {
	_, code := runCLI(t, "--mode svn")
	assert.Equal(t, 1, code)
}

func TestExitCode_Success(t *testing.T) {
	out, code := runCLI(t, "config")

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "fetch_mode: tar")
}
