package logging

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pulsepath-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConf(dir string) config.LoggingConfig {
	return config.LoggingConfig{
		Directory:  dir,
		Level:      "info",
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	}
}

func TestInitWritesPerLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	log, err := Init(testConf(dir), "test")
	require.NoError(t, err)

	log.Debug("dropped below min level")
	log.Info("hello", zap.String("k", "v"))
	log.Warn("careful")
	_ = log.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	day := time.Now().Format("2006-01-02")
	assert.Contains(t, names, day+"-info.log")
	assert.Contains(t, names, day+"-warn.log")
	assert.NotContains(t, names, day+"-debug.log")

	info, err := os.ReadFile(filepath.Join(dir, day+"-info.log"))
	require.NoError(t, err)
	assert.Contains(t, string(info), `"message":"hello"`)
	assert.Contains(t, string(info), `"program":"test"`)
	assert.NotContains(t, string(info), "careful")
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	conf := testConf(t.TempDir())
	conf.Level = "loud"

	_, err := Init(conf, "test")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loud"))
}

func TestGormZapLoggerTrace(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gl := NewGormZapLogger(zap.New(core))

	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
	gl.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
	gl.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
	gl.Trace(context.Background(), time.Now(), sqlFn, nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "GORM Trace", entries[0].Message)
	assert.Equal(t, "GORM Trace [SLOW]", entries[1].Message)

	silent := gl.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), sqlFn, errors.New("boom"))
	assert.Len(t, logs.All(), 2)
}
