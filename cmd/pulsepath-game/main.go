package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pulsepath-go/internal/config"
	"pulsepath-go/internal/database"
	"pulsepath-go/internal/experiment"
	"pulsepath-go/internal/game"
	"pulsepath-go/internal/game/scene"
	"pulsepath-go/internal/logging"
	"pulsepath-go/internal/models"
	"pulsepath-go/internal/repository"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pulsepath-game",
		Short: "Run one participant through the heart-rate synchronised path task",
		Long: `pulsepath-game opens the experiment window. The participant fills in
the setup form, steers the mobile along each level's path while stimuli
are paced from their heart rate, and rates every level. The finished
session is written to the data directory.`,
		SilenceUsage: true,
		RunE:         run,
	}
	rootCmd.PersistentFlags().String("root", ".", "Project root directory (holds config/config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	root, _ := cmd.Flags().GetString("root")
	loader, err := config.Load(root)
	if err != nil {
		return err
	}
	conf := loader.Current()

	log, err := logging.Init(conf.Logging, "game")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	levels, err := models.LoadLevels(conf.Game.LevelsFile, conf.Game.WindowWidth, conf.Game.WindowHeight)
	if err != nil {
		log.Error("Failed to load levels", zap.String("file", conf.Game.LevelsFile), zap.Error(err))
		return err
	}
	images, err := game.LoadImages(conf.Game.ImagesDir, levels)
	if err != nil {
		log.Error("Failed to load target images", zap.String("dir", conf.Game.ImagesDir), zap.Error(err))
		return err
	}

	sink, err := newSink(conf, log)
	if err != nil {
		return err
	}

	session := experiment.NewSession(experiment.Options{
		Levels:        levels,
		LevelDuration: conf.Game.LevelDuration,
		Sink:          sink,
		Speaker:       game.NewSpeaker(conf.Game, log),
		Log:           log,
	})
	ctrl := scene.NewController(session, levels.Count(), log)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ebiten.SetWindowSize(conf.Game.WindowWidth, conf.Game.WindowHeight)
	ebiten.SetWindowTitle("PulsePath")
	ebiten.SetTPS(conf.Game.TPS)

	log.Info("Starting session runner",
		zap.Int("levels", levels.Count()),
		zap.Duration("level_duration", conf.Game.LevelDuration),
		zap.String("data_dir", conf.Game.DataDir))
	if err := ebiten.RunGame(game.New(ctx, ctrl, images, conf.Game.WindowWidth, conf.Game.WindowHeight, log)); err != nil {
		log.Error("Game loop stopped with an error", zap.Error(err))
		return err
	}
	return nil
}

// newSink writes sessions to the data directory and, when the database is
// enabled, to the archive as well.
func newSink(conf *config.Config, log *zap.Logger) (experiment.Sink, error) {
	files := repository.NewFileStore(conf.Game.DataDir, log)
	if !conf.Database.Enabled {
		return files, nil
	}
	db, err := database.Open(conf.Database, log)
	if err != nil {
		return nil, err
	}
	return repository.MultiSaver{files, repository.NewDBStore(db, log)}, nil
}
