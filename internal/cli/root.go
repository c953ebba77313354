// Package cli provides the command-line interface for create-next-saas.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gekaixing/create-next-saas/internal/app"
	"github.com/gekaixing/create-next-saas/internal/bootstrap"
	"github.com/gekaixing/create-next-saas/internal/config"
	"github.com/gekaixing/create-next-saas/internal/pkgmanager"
	"github.com/gekaixing/create-next-saas/pkg/types"
)

var (
	cfgFile string
	noForce bool

	// cfg is loaded once per invocation by the root command's pre-run hook.
	cfg *types.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "create-next-saas [project-name]",
	Short: "Scaffold a Next.js SaaS project from a template",
	Long: `create-next-saas downloads a project template into a new directory,
installs its dependencies with the package manager that launched it
(npm, yarn, pnpm, ...) and initializes a git repository.

The project name defaults to "my-app".`,
	Version:           "1.0.0",
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runCreate,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./create-next-saas.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("template", "", "template source, e.g. user/repo#ref or gitlab:user/repo")
	rootCmd.PersistentFlags().String("mode", "", "fetch mode (tar|git)")
	rootCmd.PersistentFlags().String("vcs", "", "version control initializer (git|embedded|none)")
	rootCmd.PersistentFlags().Bool("skip-install", false, "skip installing dependencies")

	// Create flags
	rootCmd.Flags().Bool("cache", false, "reuse a previously downloaded template archive")
	rootCmd.Flags().BoolVar(&noForce, "no-force", false, "refuse to write into a non-empty directory")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("template", rootCmd.PersistentFlags().Lookup("template"))
	viper.BindPFlag("fetch_mode", rootCmd.PersistentFlags().Lookup("mode"))
	viper.BindPFlag("vcs", rootCmd.PersistentFlags().Lookup("vcs"))
	viper.BindPFlag("skip_install", rootCmd.PersistentFlags().Lookup("skip-install"))
	viper.BindPFlag("cache", rootCmd.Flags().Lookup("cache"))
}

// loadConfig reads configuration and installs the default logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if noForce {
		viper.Set("force", false)
	}

	// Load configuration
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = loaded

	setupLogging(cfg.LogLevel)
	if path := config.GetConfiguredPath(); path != "" {
		slog.Debug("using config file", "path", path)
	}
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// detectPackageManager resolves the package manager from the launching
// process, falling back to the configured default.
func detectPackageManager() pkgmanager.PackageManager {
	pm := pkgmanager.Detect(os.Getenv(pkgmanager.UserAgentEnv), cfg.DefaultPackageManager)
	if pm.IsYarnBerry() {
		slog.Warn("yarn 2+ ignores --ignore-engines; install may fail on engine checks", "version", pm.Version)
	}
	slog.Debug("package manager detected", "package_manager", pm.String())
	return pm
}

func projectName(args []string, fallback string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0]
	}
	return fallback
}

func runCreate(cmd *cobra.Command, args []string) error {
	pm := detectPackageManager()

	// Resolve the project directory
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	session, err := bootstrap.NewSession(cwd, projectName(args, cfg.DefaultName), pm.Name)
	if err != nil {
		return err
	}

	// Initialize the application
	a, err := app.New(cfg, app.Options{Out: cmd.OutOrStdout()})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	return a.Create(context.Background(), session)
}
