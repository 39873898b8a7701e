package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	redis_wrapper "github.com/tradesim/matchcore/pkg/infra/redis"
	"github.com/tradesim/matchcore/pkg/logging"
)

type AppConfig struct {
	ServiceName string                     `yaml:"service_name"`
	Logging     *logging.Config            `yaml:"logging"`
	Engine      *EngineConfig              `yaml:"engine"`
	Gateway     *GatewayConfig             `yaml:"gateway"`
	MarketData  *MarketDataConfig          `yaml:"market_data"`
	Metrics     *MetricsConfig             `yaml:"metrics"`
	Journal     *JournalConfig             `yaml:"journal"`
	Redis       *redis_wrapper.RedisConfig `yaml:"redis"`
}

type EngineConfig struct {
	MaxOrderSize      int64 `yaml:"max_order_size"`
	MaxPosition       int64 `yaml:"max_position"`
	SequencerCapacity int   `yaml:"sequencer_capacity"`
}

type GatewayConfig struct {
	ListenAddr        string `yaml:"listen_addr"`
	DefaultInstrument string `yaml:"default_instrument"`
	EnableConsole     bool   `yaml:"enable_console"`
}

type MarketDataConfig struct {
	Instrument string `yaml:"instrument"`
	IntervalMs int64  `yaml:"interval_ms"`
	StartPrice int64  `yaml:"start_price"`
}

type MetricsConfig struct {
	CSVPath         string `yaml:"csv_path"`
	FlushIntervalMs int64  `yaml:"flush_interval_ms"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)

	return cfg, nil
}
