package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gekaixing/create-next-saas/internal/config"
)

var writePath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration resulting from defaults, config file, environment
variables and flags as YAML. With --write, create an example configuration file.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().StringVar(&writePath, "write", "", "write an example config file to this path")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if writePath != "" {
		if err := config.WriteExample(writePath); err != nil {
			return fmt.Errorf("failed to write example config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Example configuration written to %s\n", writePath)
		return nil
	}

	// Show which file contributed, if any
	if path := config.GetConfiguredPath(); path != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
	}

	out, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
