package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/revqlabs/revq/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration revq will use: the defaults merged with
.ai-review.yaml (or the file given with --config) if present.`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := configPathFlag
	if path == "" {
		path = config.DefaultPath
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No %s found, using defaults:\n\n", path)
	} else {
		fmt.Printf("Effective configuration (%s merged over defaults):\n\n", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
