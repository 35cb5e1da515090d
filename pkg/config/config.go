package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"f1replay/pkg/cache"
	"f1replay/pkg/openf1"
	"f1replay/pkg/replays"
	"f1replay/pkg/webserver"
)

const (
	EnvPrefix = "F1REPLAY_"
	// PathEnv names the variable holding the optional YAML file path.
	PathEnv = EnvPrefix + "CONFIG"
)

type Config struct {
	ListenAddr    string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	BaseURL       string        `yaml:"base_url" env:"BASE_URL"`
	RequestDelay  time.Duration `yaml:"request_delay" env:"REQUEST_DELAY"`
	HTTPTimeout   time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT"`
	ResponseTTL   time.Duration `yaml:"response_ttl" env:"RESPONSE_TTL"`
	ReplayTTL     time.Duration `yaml:"replay_ttl" env:"REPLAY_TTL"`
	CacheDB       string        `yaml:"cache_db" env:"CACHE_DB"`
	PurgeInterval time.Duration `yaml:"purge_interval" env:"PURGE_INTERVAL"`
	FrameInterval time.Duration `yaml:"frame_interval" env:"FRAME_INTERVAL"`
	RaceYears     []int         `yaml:"race_years" env:"RACE_YEARS"`
	Mock          bool          `yaml:"mock" env:"MOCK"`
	MockSeed      int64         `yaml:"mock_seed" env:"MOCK_SEED"`
	LogLevel      string        `yaml:"log_level" env:"LOG_LEVEL"`
}

func Defaults() Config {
	return Config{
		ListenAddr:    webserver.DefaultAddr,
		BaseURL:       openf1.DefaultBaseURL,
		RequestDelay:  openf1.DefaultRequestDelay,
		HTTPTimeout:   30 * time.Second,
		ResponseTTL:   cache.DefaultTTL,
		ReplayTTL:     replays.DefaultReplayTTL,
		PurgeInterval: time.Hour,
		FrameInterval: webserver.DefaultFrameInterval,
		MockSeed:      1,
		LogLevel:      "info",
	}
}

// Load starts from Defaults, applies the YAML file named by F1REPLAY_CONFIG when set, then
// F1REPLAY_* environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(PathEnv); path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, errors.Wrap(err, "parsing environment")
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.ListenAddr) == "":
		return errors.New("listen address is empty")
	case !c.Mock && strings.TrimSpace(c.BaseURL) == "":
		return errors.New("base url is empty")
	case c.RequestDelay < 0:
		return errors.Errorf("request delay %s is negative", c.RequestDelay)
	case c.HTTPTimeout <= 0:
		return errors.Errorf("http timeout %s must be positive", c.HTTPTimeout)
	case c.ResponseTTL <= 0:
		return errors.Errorf("response ttl %s must be positive", c.ResponseTTL)
	case c.ReplayTTL <= 0:
		return errors.Errorf("replay ttl %s must be positive", c.ReplayTTL)
	case c.PurgeInterval <= 0:
		return errors.Errorf("purge interval %s must be positive", c.PurgeInterval)
	case c.FrameInterval <= 0:
		return errors.Errorf("frame interval %s must be positive", c.FrameInterval)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel onto slog levels.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, errors.Wrapf(err, "log level %q", c.LogLevel)
	}
	return l, nil
}
