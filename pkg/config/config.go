package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Pulkit320/market-scope/pkg/util"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development" validate:"required"`
	Log         LogConfig        `yaml:"log"`
	Assets      []AssetConfig    `yaml:"assets" default:"[{\"ticker\":\"BTC-USD\",\"id\":\"bitcoin\",\"name\":\"Bitcoin\"},{\"ticker\":\"ETH-USD\",\"id\":\"ethereum\",\"name\":\"Ethereum\"},{\"ticker\":\"SOL-USD\",\"id\":\"solana\",\"name\":\"Solana\"}]" validate:"required,min=1,dive"`
	Pipeline    PipelineConfig   `yaml:"pipeline"`
	Provider    ProviderConfig   `yaml:"provider"`
	Model       ModelConfig      `yaml:"model"`
	Output      OutputConfig     `yaml:"output"`
	Sinks       SinksConfig      `yaml:"sinks"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Server      ServerConfig     `yaml:"server"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	Output string `yaml:"output" default:"stdout" validate:"required"`
}

// AssetConfig maps a provider ticker to the dashboard identity of the asset.
type AssetConfig struct {
	Ticker string `yaml:"ticker" json:"ticker" validate:"required"`
	ID     string `yaml:"id" json:"id" validate:"required,lowercase"`
	Name   string `yaml:"name" json:"name" validate:"required"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

type PipelineConfig struct {
	Features      []string      `yaml:"features" default:"[\"Close\",\"High\",\"Low\"]" validate:"required,min=1,unique,dive,oneof=Open High Low Close Volume"`
	WindowSize    int           `yaml:"window_size" default:"60" validate:"gte=2"`
	HistoryLength int           `yaml:"history_length" default:"30" validate:"gte=1"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" default:"15s" validate:"gt=0"`
}

type ProviderConfig struct {
	Type     string      `yaml:"type" default:"yahoo" validate:"oneof=yahoo clickhouse"`
	Range    string      `yaml:"range" default:"3mo" validate:"required"`
	Interval string      `yaml:"interval" default:"1d" validate:"oneof=1d 1wk"`
	Yahoo    YahooConfig `yaml:"yahoo"`
	Cache    CacheConfig `yaml:"cache"`
}

type YahooConfig struct {
	BaseURL   string          `yaml:"base_url" default:"https://query1.finance.yahoo.com" validate:"required,url"`
	Timeout   time.Duration   `yaml:"timeout" default:"10s"`
	UserAgent string          `yaml:"user_agent" default:"Mozilla/5.0 (compatible; market-scope/1.0)"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	Capacity     float64 `yaml:"capacity" default:"2" validate:"gt=0"`
	RefillPerSec float64 `yaml:"refill_per_sec" default:"1" validate:"gt=0"`
}

type CacheConfig struct {
	Type      string        `yaml:"type" default:"none" validate:"oneof=none memory redis badger layered"`
	TTL       time.Duration `yaml:"ttl" default:"1h"`
	MemoryTTL time.Duration `yaml:"memory_ttl" default:"5m"`
	Redis     RedisConfig   `yaml:"redis"`
	Badger    BadgerConfig  `yaml:"badger"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"market-scope"`
}

type BadgerConfig struct {
	Dir string `yaml:"dir" default:".cache/history"`
}

type ModelConfig struct {
	Path       string        `yaml:"path" default:"models/market_tracer_model.json"`
	ServiceURL string        `yaml:"service_url" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" default:"5s"`
	Seed       uint64        `yaml:"seed"`
}

type OutputConfig struct {
	Path     string `yaml:"path" default:"market_data.json" validate:"required"`
	Indent   int    `yaml:"indent" default:"2" validate:"gte=0,lte=8"`
	MarkMock bool   `yaml:"mark_mock"`
}

type SinksConfig struct {
	Kafka      KafkaSinkConfig      `yaml:"kafka"`
	ClickHouse ClickHouseSinkConfig `yaml:"clickhouse"`
}

type KafkaSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Topic   string `yaml:"topic" default:"market-scope.assets"`
}

type ClickHouseSinkConfig struct {
	Enabled bool   `yaml:"enabled"`
	Table   string `yaml:"table" default:"predictions"`
}

type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	RequiredAcks int           `yaml:"required_acks" default:"-1"`
	Compression  string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	MaxAttempts  int           `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
}

type ClickHouseConfig struct {
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"market_scope"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	CandlesTable     string        `yaml:"candles_table" default:"daily_candles"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	PushGateway string `yaml:"push_gateway" validate:"omitempty,url"`
	Job         string `yaml:"job" default:"market_scope"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse builds a configuration from raw YAML bytes.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// A .env file in the working directory is loaded first when present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FEATURES"); v != "" {
		c.Pipeline.Features = splitList(v)
	}
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv("CACHE"); v != "" {
		c.Provider.Cache.Type = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Provider.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Provider.Cache.Redis.Password = v
	}
	if v := os.Getenv("MODEL_PATH"); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.ServiceURL = v
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		c.Output.Path = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Sinks.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		c.Metrics.PushGateway = v
	}

	if err := c.finish(); err != nil {
		return nil, err
	}
	return c, nil
}

// decode fills tag defaults before unmarshalling so that keys present in the
// file win, explicit zero values included (model.path: "", required_acks: 0).
func decode(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) finish() error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(c.Assets))
	for _, a := range c.Assets {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("assets: duplicate id '%s'", a.ID)
		}
		seen[a.ID] = struct{}{}
	}

	start, err := util.LookbackStart(time.Now(), c.Provider.Range)
	if err != nil {
		return fmt.Errorf("provider.range: %w", err)
	}
	if start.After(time.Now().AddDate(0, -3, 0)) {
		return fmt.Errorf("provider.range must cover at least 3 months, got '%s'", c.Provider.Range)
	}

	if c.Model.Path != "" && strings.ToLower(filepath.Ext(c.Model.Path)) != ".json" {
		return fmt.Errorf("model.path must point to a .json artifact, got '%s'", c.Model.Path)
	}
	if c.Sinks.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when sinks.kafka is enabled")
	}
	if c.Metrics.PushGateway != "" && !c.Metrics.Enabled {
		return fmt.Errorf("metrics.push_gateway requires metrics.enabled")
	}
	return nil
}

// UsesClickHouse reports whether any component needs a ClickHouse connection.
func (c *Config) UsesClickHouse() bool {
	return c.Provider.Type == "clickhouse" || c.Sinks.ClickHouse.Enabled
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
