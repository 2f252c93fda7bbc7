package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CAMPUS"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	PubNub   PubNubConfig   `mapstructure:"pubnub"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

type AuthConfig struct {
	AllowSuperadminSignup bool          `mapstructure:"allow_superadmin_signup"`
	LoginRateLimit        int           `mapstructure:"login_rate_limit"`
	LoginRateWindow       time.Duration `mapstructure:"login_rate_window"`
}

type RealtimeConfig struct {
	Buffer         int           `mapstructure:"buffer"`
	Heartbeat      time.Duration `mapstructure:"heartbeat"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
	RedisBridge    bool          `mapstructure:"redis_bridge"`
	RedisChannel   string        `mapstructure:"redis_channel"`
}

type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type PubNubConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	PublishKey   string `mapstructure:"publish_key"`
	SubscribeKey string `mapstructure:"subscribe_key"`
	SecretKey    string `mapstructure:"secret_key"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.driver", "mysql")
	v.SetDefault("mysql.dsn", "root:root@tcp(127.0.0.1:3306)/campus_hub?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "campus_hub")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.access_secret", "")
	v.SetDefault("jwt.refresh_secret", "")
	v.SetDefault("jwt.access_ttl", 30*time.Minute)
	v.SetDefault("jwt.refresh_ttl", 24*time.Hour)

	v.SetDefault("auth.allow_superadmin_signup", false)
	v.SetDefault("auth.login_rate_limit", 10)
	v.SetDefault("auth.login_rate_window", time.Minute)

	v.SetDefault("realtime.buffer", 16)
	v.SetDefault("realtime.heartbeat", 25*time.Second)
	v.SetDefault("realtime.publish_timeout", 5*time.Second)
	v.SetDefault("realtime.redis_bridge", false)
	v.SetDefault("realtime.redis_channel", "campus:realtime")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic", "campus.realtime")

	v.SetDefault("pubnub.enabled", false)
	v.SetDefault("pubnub.publish_key", "")
	v.SetDefault("pubnub.subscribe_key", "")
	v.SetDefault("pubnub.secret_key", "")

	v.SetDefault("smtp.enabled", false)
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load 优先级：默认值 < 配置文件 < .env < 环境变量
func Load(configFile string) (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "mysql":
		if c.MySQL.DSN == "" {
			return errors.New("config: mysql.dsn is required")
		}
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("config: mongo.uri and mongo.database are required")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("config: jwt.access_secret and jwt.refresh_secret are required")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("config: jwt secrets must differ")
	}
	if c.Realtime.Buffer <= 0 {
		return errors.New("config: realtime.buffer must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("config: kafka.brokers is required when kafka is enabled")
	}
	if c.PubNub.Enabled && (c.PubNub.PublishKey == "" || c.PubNub.SubscribeKey == "") {
		return errors.New("config: pubnub keys are required when pubnub is enabled")
	}
	return nil
}
