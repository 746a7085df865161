package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pulsepath-go/internal/config"
	"pulsepath-go/internal/models"
)

func TestOpenSQLiteMigrates(t *testing.T) {
	conf := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "archive.db")}
	db, err := Open(conf, zap.NewNop())
	require.NoError(t, err)

	for _, table := range []any{&models.SessionResult{}, &models.LevelRating{}, &models.ResponseEvent{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasIndex(&models.LevelRating{}, "idx_level_ratings_query"))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}
