package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"telemetry-pipeline/internal/model"
)

// ProducerConfig controls the reading producer loop.
type ProducerConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// ConsumerConfig controls the consumption loop.
type ConsumerConfig struct {
	SampleSize int `mapstructure:"sampleSize" validate:"gt=0"`
}

// QueueConfig controls the bounded ingestion queue.
type QueueConfig struct {
	Capacity int    `mapstructure:"capacity" validate:"gt=0"`
	Policy   string `mapstructure:"policy" validate:"oneof=block drop_oldest drop_newest"`
}

// PoolConfig controls the distribution layer.
type PoolConfig struct {
	Mode           string        `mapstructure:"mode" validate:"oneof=nats local"`
	URL            string        `mapstructure:"url"`
	RequestTimeout time.Duration `mapstructure:"requestTimeout" validate:"gt=0"`
	Workers        int           `mapstructure:"workers" validate:"gt=0"`
}

// StoreConfig controls the reading store.
type StoreConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DirectoryConfig locates the machine directory. Machines takes precedence;
// Path points at a JSON file of id -> brand.
type DirectoryConfig struct {
	Path     string            `mapstructure:"path"`
	Machines map[string]string `mapstructure:"machines"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// APIConfig controls the audit API server.
type APIConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// Config is the full configuration surface of the pipeline.
type Config struct {
	Producer  ProducerConfig   `mapstructure:"producer"`
	Consumer  ConsumerConfig   `mapstructure:"consumer"`
	Queue     QueueConfig      `mapstructure:"queue"`
	Pool      PoolConfig       `mapstructure:"pool"`
	Store     StoreConfig      `mapstructure:"store"`
	Directory DirectoryConfig  `mapstructure:"directory"`
	Schema    model.SchemaSpec `mapstructure:"schema"`
	Log       LogConfig        `mapstructure:"log"`
	API       APIConfig        `mapstructure:"api"`
}

// Default returns the configuration used when no file or env overrides are
// present.
func Default() Config {
	return Config{
		Producer:  ProducerConfig{Interval: time.Second},
		Consumer:  ConsumerConfig{SampleSize: 10},
		Queue:     QueueConfig{Capacity: 1024, Policy: "block"},
		Pool:      PoolConfig{Mode: "local", URL: "nats://127.0.0.1:4222", RequestTimeout: 5 * time.Second, Workers: 4},
		Store:     StoreConfig{Path: "readings.db"},
		Directory: DirectoryConfig{Machines: map[string]string{
			"m1": "ContosoRack",
			"m2": "NordicFrost",
			"m3": "ApexThermal",
		}},
		Schema:    model.DefaultSchema(),
		Log:       LogConfig{Level: "info", Format: "console"},
		API:       APIConfig{Addr: ":8080"},
	}
}

// Load reads configuration from an optional yaml file, a .env file, and
// PIPELINE_* environment variables, in increasing precedence. An empty path
// searches ./config.yml and ./config/config.yml.
func Load(path string) (Config, error) {
	// .env is optional; environment wins over file contents either way.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("PIPELINE_CONFIG_FILE")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration, including the schema spec.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Schema.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Pool.Mode == "nats" && c.Pool.URL == "" {
		return fmt.Errorf("invalid config: pool.url required in nats mode")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("producer.interval", d.Producer.Interval)
	v.SetDefault("consumer.sampleSize", d.Consumer.SampleSize)
	v.SetDefault("queue.capacity", d.Queue.Capacity)
	v.SetDefault("queue.policy", d.Queue.Policy)
	v.SetDefault("pool.mode", d.Pool.Mode)
	v.SetDefault("pool.url", d.Pool.URL)
	v.SetDefault("pool.requestTimeout", d.Pool.RequestTimeout)
	v.SetDefault("pool.workers", d.Pool.Workers)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("api.addr", d.API.Addr)
}
