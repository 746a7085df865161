package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pulsepath-go/internal/config"
	logging "pulsepath-go/internal/logging"
	"pulsepath-go/internal/models"
)

// Open connects to the archive database described by conf and runs migrations.
func Open(conf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(conf)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logging.NewGormZapLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully.", zap.String("driver", conf.Driver))

	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(conf config.DatabaseConfig) (gorm.Dialector, error) {
	switch conf.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			conf.Host, conf.User, conf.Password, conf.DBName, conf.Port)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(conf.Path), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
}

// Migrate creates or updates the archive tables.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.SessionResult{},
		&models.LevelRating{},
		&models.ResponseEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	ratingsIndex := `CREATE INDEX IF NOT EXISTS idx_level_ratings_query ON level_ratings (result_id, level);`
	if err := db.Exec(ratingsIndex).Error; err != nil {
		return fmt.Errorf("failed to create custom index on level_ratings: %w", err)
	}
	return nil
}
