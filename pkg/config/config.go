package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Session   SessionConfig   `mapstructure:"session"`
	Quota     QuotaConfig     `mapstructure:"quota"`
	Composer  ComposerConfig  `mapstructure:"composer"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Events    EventsConfig    `mapstructure:"events"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type UpstreamConfig struct {
	URL              string        `mapstructure:"url"`
	Model            string        `mapstructure:"model"`
	APIKey           string        `mapstructure:"api_key"`
	GreetingPrompt   string        `mapstructure:"greeting_prompt"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	AudioQueueSize   int           `mapstructure:"audio_queue_size"`
}

type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

type SessionConfig struct {
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type QuotaConfig struct {
	Provider      string        `mapstructure:"provider"`
	BaseURL       string        `mapstructure:"base_url"`
	Token         string        `mapstructure:"token"`
	EstimatedCost int64         `mapstructure:"estimated_cost"`
	CostPerMinute int64         `mapstructure:"cost_per_minute"`
	DefaultGrant  int64         `mapstructure:"default_grant"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
	HalfOpenRequests uint32        `mapstructure:"half_open_requests"`
}

type ComposerConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Provider     string `mapstructure:"provider"`
	Model        string `mapstructure:"model"`
	APIKey       string `mapstructure:"api_key"`
	MaxTokens    int64  `mapstructure:"max_tokens"`
	AWSRegion    string `mapstructure:"aws_region"`
	AWSAccessKey string `mapstructure:"aws_access_key"`
	AWSSecretKey string `mapstructure:"aws_secret_key"`
	NotesBaseURL string `mapstructure:"notes_base_url"`
	NotesToken   string `mapstructure:"notes_token"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type EventsConfig struct {
	Enabled  bool                   `mapstructure:"enabled"`
	Exporter string                 `mapstructure:"exporter"`
	Settings map[string]interface{} `mapstructure:"settings"`
}

type WebsocketConfig struct {
	MaxConnections int           `mapstructure:"max_connections"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("⚠️ Warning: Could not load main config file: %v", err)
	}

	setDefaultValues()

	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("voicebridge")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Server.Port == 0 {
		globalConfig.Server.Port = 8080
	}
	if globalConfig.Server.MetricsPort == 0 {
		globalConfig.Server.MetricsPort = 9090
	}
	if globalConfig.Upstream.HandshakeTimeout == 0 {
		globalConfig.Upstream.HandshakeTimeout = 10 * time.Second
	}
	if globalConfig.Upstream.AudioQueueSize == 0 {
		globalConfig.Upstream.AudioQueueSize = 32
	}
	if globalConfig.Auth.TokenExpiry == 0 {
		globalConfig.Auth.TokenExpiry = 24 * time.Hour
	}
	if globalConfig.Session.IdleTTL == 0 {
		globalConfig.Session.IdleTTL = 30 * time.Minute
	}
	if globalConfig.Session.SweepInterval == 0 {
		globalConfig.Session.SweepInterval = time.Minute
	}
	if globalConfig.Quota.EstimatedCost == 0 {
		globalConfig.Quota.EstimatedCost = 1
	}
	if globalConfig.Quota.CostPerMinute == 0 {
		globalConfig.Quota.CostPerMinute = 1
	}
	if globalConfig.Quota.DefaultGrant == 0 {
		globalConfig.Quota.DefaultGrant = 10
	}
	if globalConfig.Quota.Breaker.FailureThreshold == 0 {
		globalConfig.Quota.Breaker.FailureThreshold = 5
	}
	if globalConfig.Quota.Breaker.RecoveryTimeout == 0 {
		globalConfig.Quota.Breaker.RecoveryTimeout = 30 * time.Second
	}
	if globalConfig.Quota.Breaker.HalfOpenRequests == 0 {
		globalConfig.Quota.Breaker.HalfOpenRequests = 1
	}
	if globalConfig.Composer.MaxTokens == 0 {
		globalConfig.Composer.MaxTokens = 1024
	}
	if globalConfig.Websocket.MaxConnections == 0 {
		globalConfig.Websocket.MaxConnections = 1024
	}
	if globalConfig.Websocket.PongWait == 0 {
		globalConfig.Websocket.PongWait = 45 * time.Second
	}
	if globalConfig.Websocket.PingPeriod == 0 {
		globalConfig.Websocket.PingPeriod = 30 * time.Second
	}
}

func GetConfig() *Config {
	return &globalConfig
}
