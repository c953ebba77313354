package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gekaixing/create-next-saas/internal/app"
	"github.com/gekaixing/create-next-saas/internal/doctor"
	"github.com/gekaixing/create-next-saas/pkg/types"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that a project can be created",
	Long: `Check that git and the package manager are installed and that the
configured template can be reached. Reports response times for network checks.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	// Initialize the application
	a, err := app.New(cfg, app.Options{Out: cmd.OutOrStdout()})
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Check all services
	pm := detectPackageManager()
	statuses := a.HealthCheck(ctx, pm.Name)

	if !printHealth(cmd.OutOrStdout(), statuses) {
		return fmt.Errorf("health check failed")
	}
	return nil
}

// printHealth writes one line per status and reports whether all passed.
func printHealth(w io.Writer, statuses []*types.HealthStatus) bool {
	fmt.Fprintln(w, "🏥 create-next-saas doctor")
	fmt.Fprintln(w, "═════════════════════════")

	for _, status := range statuses {
		icon := "✅"
		if !status.Healthy {
			icon = "❌"
		}

		fmt.Fprintf(w, "%s %s", icon, status.Name)

		if status.Latency != "" {
			fmt.Fprintf(w, " (%s)", status.Latency)
		}

		if status.Message != "" {
			fmt.Fprintf(w, " - %s", status.Message)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)

	if doctor.Healthy(statuses) {
		fmt.Fprintln(w, "🎉 Ready to create projects!")
		return true
	}
	fmt.Fprintln(w, "⚠️  Some checks failed")
	return false
}
