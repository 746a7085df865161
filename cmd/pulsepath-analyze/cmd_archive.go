package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pulsepath-go/internal/database"
	"pulsepath-go/internal/repository"
)

func newArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive",
		Short: "Copy session files into the database, skipping ones already stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, conf, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			if !conf.Database.Enabled {
				return errors.New("database.enabled is false in the configuration")
			}
			db, err := database.Open(conf.Database, log)
			if err != nil {
				return err
			}
			store := repository.NewDBStore(db, log)

			loaded, err := repository.LoadSessions(conf.Analysis.DataDir, log)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var stored, present int
			var errs []error
			for _, ls := range loaded.Sessions {
				rec := repository.RecordFromFile(ls.Doc)
				exists, err := store.Exists(ctx, rec.SessionID)
				if err != nil {
					return fmt.Errorf("failed to query archive: %w", err)
				}
				if exists {
					present++
					continue
				}
				if err := store.SaveSessionTx(ctx, rec); err != nil {
					log.Error("Failed to archive session", zap.String("file", ls.File), zap.Error(err))
					errs = append(errs, fmt.Errorf("%s: %w", ls.File, err))
					continue
				}
				stored++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d sessions, %d already present, %d files skipped, %d failed\n",
				stored, present, len(loaded.Skipped), len(errs))
			return errors.Join(errs...)
		},
	}
}
