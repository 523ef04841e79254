package config

import (
	"bytes"
	_ "embed"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	Files      FilesConfig    `mapstructure:"files"`
	Storage    StorageConfig  `mapstructure:"storage"`
	Feed       FeedConfig     `mapstructure:"feed"`
	MySQL      DatabaseConfig `mapstructure:"mysql"`
	ClickHouse DatabaseConfig `mapstructure:"clickhouse"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	Log        LogConfig      `mapstructure:"log"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
}

// ---- Leaf structs ----

type FilesConfig struct {
	Customers    string `mapstructure:"customers"`
	Transactions string `mapstructure:"transactions"`
	Output       string `mapstructure:"output"`
	Delimiter    string `mapstructure:"delimiter"`
	AtomicWrite  bool   `mapstructure:"atomic_write"`
	MaxLineBytes int    `mapstructure:"max_line_bytes"`
}

type Backend string

const (
	BackendFile  Backend = "file"
	BackendMySQL Backend = "mysql"
	BackendRedis Backend = "redis"
)

type StorageConfig struct {
	Backend Backend `mapstructure:"backend"`
}

type FeedSource string

const (
	FeedFile       FeedSource = "file"
	FeedKafka      FeedSource = "kafka"
	FeedClickHouse FeedSource = "clickhouse"
)

type FeedConfig struct {
	Source FeedSource `mapstructure:"source"`
}

// DatabaseConfig serves both sqlx connections. Table is the customers table
// for mysql and the transactions table for clickhouse.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
	Table           string        `mapstructure:"table"`
	InsertBatch     int           `mapstructure:"insert_batch"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Key         string        `mapstructure:"key"`
}

// IdleTimeout ends a kafka feed that sees no message for that long before
// reaching the high-water mark captured at open.
type KafkaConfig struct {
	Brokers     []string      `mapstructure:"brokers"`
	Topic       string        `mapstructure:"topic"`
	Partition   int           `mapstructure:"partition"`
	MinBytes    int           `mapstructure:"min_bytes"`
	MaxBytes    int           `mapstructure:"max_bytes"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // json | console
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Load reads embedded defaults, merges user YAML (if present), and applies env overrides (BALBATCH_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil && !isMissing(err) {
			return Config{}, err
		}
	}

	// env override (BALBATCH_FILES_OUTPUT, ...)
	v.SetEnvPrefix("BALBATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendMySQL, BackendRedis:
	default:
		return errors.New("storage.backend must be file, mysql or redis")
	}
	switch c.Feed.Source {
	case FeedFile, FeedKafka, FeedClickHouse:
	default:
		return errors.New("feed.source must be file, kafka or clickhouse")
	}
	if c.Files.MaxLineBytes < 0 {
		return errors.New("files.max_line_bytes must not be negative")
	}
	return nil
}

func isMissing(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}
