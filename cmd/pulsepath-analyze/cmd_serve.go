package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pulsepath-go/internal/config"
	"pulsepath-go/internal/database"
	"pulsepath-go/internal/handlers"
	"pulsepath-go/internal/repository"
	"pulsepath-go/internal/router"
	"pulsepath-go/internal/services"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest report and re-analyse when new sessions arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, conf, log, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := services.NewAnalysisService(conf.Analysis, log)
			if _, err := svc.Run(ctx); err != nil {
				// the scheduler retries once the directory shows up
				log.Error("Initial analysis failed", zap.Error(err))
			}

			var store *repository.DBStore
			if conf.Database.Enabled {
				db, err := database.Open(conf.Database, log)
				if err != nil {
					return err
				}
				store = repository.NewDBStore(db, log)
			}

			overrides := conf.Analysis
			loader.Watch(log, func(c *config.Config) {
				next := c.Analysis
				// command-line overrides win over the file
				if flagSet(cmd, "data-dir") {
					next.DataDir = overrides.DataDir
				}
				if flagSet(cmd, "output-dir") {
					next.OutputDir = overrides.OutputDir
				}
				svc.Configure(next)
			})

			if conf.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			r := router.Setup(log,
				router.Options{ChartsDir: conf.Analysis.OutputDir, RefreshPerMinute: conf.Server.RefreshPerMinute},
				handlers.NewReportHandler(log, svc),
				handlers.NewArchiveHandler(log, store))
			srv := &http.Server{
				Addr:              ":" + conf.Server.Port,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("Server listening on http://localhost:" + conf.Server.Port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				return services.NewScheduler(log, svc, conf.Analysis.RefreshInterval).Run(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("Shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

func flagSet(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
