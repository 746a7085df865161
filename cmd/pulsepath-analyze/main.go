package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pulsepath-go/internal/config"
	"pulsepath-go/internal/logging"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulsepath-analyze",
		Short: "Batch analysis of heart-rate synchronisation sessions",
		Long: `pulsepath-analyze reads every session file in the data directory,
checks sample sizes and rating bounds, runs ANOVA, Kruskal-Wallis and
paired t-tests, and writes a text report with HTML charts.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("root", ".", "Project root directory (holds config/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Override analysis.data_dir")
	rootCmd.PersistentFlags().String("output-dir", "", "Override analysis.output_dir")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newArchiveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the configuration, applies flag overrides and builds the
// logger shared by every subcommand.
func bootstrap(cmd *cobra.Command) (*config.Loader, *config.Config, *zap.Logger, error) {
	root, _ := cmd.Flags().GetString("root")
	loader, err := config.Load(root)
	if err != nil {
		return nil, nil, nil, err
	}
	conf := *loader.Current()
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		conf.Analysis.DataDir = dir
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		conf.Analysis.OutputDir = dir
	}

	log, err := logging.Init(conf.Logging, "analyze")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return loader, &conf, log, nil
}
