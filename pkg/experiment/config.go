package experiment

import (
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// envPrefix is the prefix for environment overrides
// (e.g. STEPLINE__ROOT, STEPLINE__LOG__LEVEL).
const envPrefix = "STEPLINE__"

// LogConfig controls the logger built by [Config.Logger].
type LogConfig struct {
	// Enabled turns logging on. The default is a no-op logger so the
	// library stays silent unless asked not to be.
	Enabled bool `koanf:"enabled"`
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `koanf:"level"`
	// Development switches to zap's development encoder.
	Development bool `koanf:"development"`
}

// Config describes one experiment: where steps persist their fitted state and
// whether they are allowed to reuse it. It is an explicit value threaded
// through pipeline construction, so several experiments with different roots
// can coexist in one process.
type Config struct {
	// Root is the directory under which every trainable step caches its
	// state, one subdirectory per step. It is created lazily on first
	// persistence and never cleared by the framework.
	Root string `koanf:"root"`
	// Cache enables loading and persisting fitted state. Disabling it
	// forces every trainable step to fit on each run.
	Cache bool      `koanf:"cache"`
	Log   LogConfig `koanf:"log"`

	logger *zap.Logger
}

// New returns a Config with caching enabled rooted at dir.
func New(dir string) Config {
	return Config{Root: dir, Cache: true}
}

// Load reads a YAML config file and merges environment overrides on top.
// A missing file is not an error; env-only configuration is valid.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		err := k.Load(file.Provider(path), yaml.Parser())
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "unable to load experiment config %s", path)
		}
	}

	err := k.Load(env.Provider(envPrefix, "__", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix))
	}), nil)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to load experiment environment")
	}

	cfg := Config{Cache: true}
	err = k.Unmarshal("", &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to unmarshal experiment config")
	}

	return cfg, nil
}

// WithLogger returns a copy of the config using a caller-supplied logger
// instead of the one described by Log.
func (c Config) WithLogger(logger *zap.Logger) Config {
	c.logger = logger

	return c
}

// Logger returns the logger for this experiment. Without an explicit logger
// and with logging disabled it returns zap.NewNop.
func (c Config) Logger() (*zap.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	if !c.Log.Enabled {
		return zap.NewNop(), nil
	}

	zapCfg := zap.NewProductionConfig()
	if c.Log.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if c.Log.Level != "" {
		lvl, err := zap.ParseAtomicLevel(c.Log.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse log level %q", c.Log.Level)
		}
		zapCfg.Level = lvl
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build logger")
	}

	return logger, nil
}
