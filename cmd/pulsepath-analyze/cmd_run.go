package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulsepath-go/internal/services"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Analyse the data directory once and write the report and charts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conf, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			snap, err := services.NewAnalysisService(conf.Analysis, log).Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := snap.Report.Render(out); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nReport written to %s\n", snap.ReportPath)
			for _, c := range snap.Charts {
				fmt.Fprintf(out, "Chart written to %s\n", c)
			}
			return nil
		},
	}
}
