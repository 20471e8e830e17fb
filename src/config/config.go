package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Service         ServiceConfig        `mapstructure:"service"`
	Databases       DatabasesConfig      `mapstructure:"databases"`
	ExternalClients ExternalClientConfig `mapstructure:"externalClients"`
	Ingestion       IngestionConfig      `mapstructure:"ingestion"`
	Tracing         TracingConfig        `mapstructure:"tracing"`
}

type ServiceType string

const (
	API    ServiceType = "API"
	WORKER ServiceType = "WORKER"
)

type ServiceConfig struct {
	Type      ServiceType `mapstructure:"type"`
	Port      string      `mapstructure:"port"`
	LogLevel  string      `mapstructure:"logLevel"`
	LogToFile bool        `mapstructure:"logToFile"`
	LogFile   string      `mapstructure:"logFile"`
}

type DatabasesConfig struct {
	SQL SQLConfig `mapstructure:"sql"`
}

type SQLConfig struct {
	Host             string `mapstructure:"host"`
	Port             string `mapstructure:"port"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	PasswordSecretID string `mapstructure:"passwordSecretId"`
	Driver           string `mapstructure:"driver"`
	Database         string `mapstructure:"database"`
	ConnectionString string `mapstructure:"connection_string"`
	MaxConns         int32  `mapstructure:"maxConns"`
}

type ExternalClientConfig struct {
	HouseWatcher HouseWatcherConfig `mapstructure:"houseWatcher"`
	Yahoo        YahooConfig        `mapstructure:"yahoo"`
}

type HouseWatcherConfig struct {
	Region string `mapstructure:"region"`
	Bucket string `mapstructure:"bucket"`
	Key    string `mapstructure:"key"`
	// Endpoint overrides the S3 endpoint, used against local S3 compatible stores.
	Endpoint string `mapstructure:"endpoint"`
}

type YahooConfig struct {
	BaseURL      string        `mapstructure:"baseUrl"`
	UserAgent    string        `mapstructure:"userAgent"`
	RequestDelay time.Duration `mapstructure:"requestDelay"`
	Concurrency  int           `mapstructure:"concurrency"`
}

type IngestionConfig struct {
	Cron               string        `mapstructure:"cron"`
	PriceLookaheadDays int           `mapstructure:"priceLookaheadDays"`
	Timeout            time.Duration `mapstructure:"timeout"`
	AWSRegion          string        `mapstructure:"awsRegion"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads appsettings.yaml, or appsettings.<env>.yaml when env is
// set, from path. Environment variables override file values using
// underscores in place of dots (DATABASES_SQL_HOST).
func LoadConfig(path string, env string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.AddConfigPath(path)
	if env != "" {
		v.SetConfigName("appsettings." + env)
	} else {
		v.SetConfigName("appsettings")
	}
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service.type", string(API))
	v.SetDefault("service.port", "8000")
	v.SetDefault("service.logLevel", "info")
	v.SetDefault("databases.sql.maxConns", 5)
	v.SetDefault("externalClients.houseWatcher.region", "us-west-2")
	v.SetDefault("externalClients.houseWatcher.bucket", "house-stock-watcher-data")
	v.SetDefault("externalClients.houseWatcher.key", "data/all_transactions.json")
	v.SetDefault("externalClients.yahoo.baseUrl", "https://query1.finance.yahoo.com")
	v.SetDefault("externalClients.yahoo.concurrency", 4)
	v.SetDefault("ingestion.priceLookaheadDays", 180)
	v.SetDefault("ingestion.timeout", 2*time.Hour)

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}
	err = v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
