package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config struct is the top-level configuration structure.
type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// GameConfig holds settings for the session runner window and assets.
type GameConfig struct {
	WindowWidth     int           `mapstructure:"window_width"`
	WindowHeight    int           `mapstructure:"window_height"`
	TPS             int           `mapstructure:"tps"`
	LevelDuration   time.Duration `mapstructure:"level_duration"`
	LevelsFile      string        `mapstructure:"levels_file"`
	DataDir         string        `mapstructure:"data_dir"`
	ImagesDir       string        `mapstructure:"images_dir"`
	AudioEnabled    bool          `mapstructure:"audio_enabled"`
	AudioSampleRate int           `mapstructure:"audio_sample_rate"`
	BipFrequency    float64       `mapstructure:"bip_frequency"`
	BipVolume       float64       `mapstructure:"bip_volume"`
}

// AnalysisConfig holds settings for the batch analyzer.
type AnalysisConfig struct {
	DataDir         string        `mapstructure:"data_dir"`
	OutputDir       string        `mapstructure:"output_dir"`
	ReportFile      string        `mapstructure:"report_file"`
	MinParticipants int           `mapstructure:"min_participants"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// ServerConfig holds settings for the results viewer.
type ServerConfig struct {
	Port             string `mapstructure:"port"`
	RefreshPerMinute uint   `mapstructure:"refresh_per_minute"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Path     string `mapstructure:"path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Game defaults
	v.SetDefault("game.window_width", 800)
	v.SetDefault("game.window_height", 600)
	v.SetDefault("game.tps", 60)
	v.SetDefault("game.level_duration", "60s")
	v.SetDefault("game.levels_file", "")
	v.SetDefault("game.data_dir", "data")
	v.SetDefault("game.images_dir", "assets/images")
	v.SetDefault("game.audio_enabled", true)
	v.SetDefault("game.bip_frequency", 800.0)
	v.SetDefault("game.bip_volume", 0.5)
	v.SetDefault("game.audio_sample_rate", 44100)

	// Analysis defaults
	v.SetDefault("analysis.data_dir", "data")
	v.SetDefault("analysis.output_dir", "figures")
	v.SetDefault("analysis.report_file", "analysis_report.txt")
	v.SetDefault("analysis.min_participants", 20)
	v.SetDefault("analysis.refresh_interval", "1m")

	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.refresh_per_minute", 5)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "pulsepath")
	v.SetDefault("database.path", "pulsepath.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs
}

// Loader owns the viper instance and the most recently decoded Config.
type Loader struct {
	v       *viper.Viper
	root    string
	current atomic.Pointer[Config]
}

// Load reads config/config.yaml under projectRoot, falling back to defaults
// and PULSEPATH_* environment variables.
func Load(projectRoot string) (*Loader, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// --- File Configuration ---
	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	v.SetEnvPrefix("PULSEPATH") // e.g., PULSEPATH_SERVER_PORT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	l := &Loader{v: v, root: projectRoot}
	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.current.Store(cfg)
	return l, nil
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	cfg.resolvePaths(l.root)
	return &cfg, nil
}

// resolvePaths anchors relative directories at the project root.
func (c *Config) resolvePaths(root string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	c.Game.DataDir = abs(c.Game.DataDir)
	c.Game.ImagesDir = abs(c.Game.ImagesDir)
	c.Game.LevelsFile = abs(c.Game.LevelsFile)
	c.Analysis.DataDir = abs(c.Analysis.DataDir)
	c.Analysis.OutputDir = abs(c.Analysis.OutputDir)
	c.Logging.Directory = abs(c.Logging.Directory)
	if c.Database.Driver == "sqlite" {
		c.Database.Path = abs(c.Database.Path)
	}
}

// Current returns the latest configuration snapshot.
func (l *Loader) Current() *Config {
	return l.current.Load()
}

// Watch enables hot-reloading. onChange runs on the fsnotify goroutine with
// the freshly decoded snapshot.
func (l *Loader) Watch(log *zap.Logger, onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		cfg, err := l.decode()
		if err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		l.current.Store(cfg)
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}
