// Package config loads the settings of the syncpoint command.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Default values.
const (
	DefaultSQLitePath      = "syncpoint.db"
	DefaultRedisKeyPrefix  = "syncpoint:checkpoint:"
	DefaultMinioBucket     = "syncpoint"
	DefaultWriteTimestamps = true
	DefaultLogLevel        = "info"
)

// Config is the top-level configuration of the syncpoint command.
// Field tags use mapstructure for viper unmarshalling. At most one of Redis,
// Minio and FileDir selects where the peer copy of a checkpoint lives.
type Config struct {
	SQLitePath      string      `mapstructure:"sqlite_path"`
	Redis           RedisConfig `mapstructure:"redis"`
	Minio           MinioConfig `mapstructure:"minio"`
	FileDir         string      `mapstructure:"file_dir"`
	WriteTimestamps bool        `mapstructure:"write_timestamps"`
	LogLevel        string      `mapstructure:"log_level"`
}

// RedisConfig locates the peer copy of checkpoints kept in redis.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// MinioConfig locates the peer copy of checkpoints kept in an object store.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Secure    bool   `mapstructure:"secure"`
}

// Level parses LogLevel.
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SQLitePath == "" {
		return errors.New("sqlite_path is empty")
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	peers := 0
	for _, set := range []string{c.Redis.Addr, c.Minio.Endpoint, c.FileDir} {
		if set != "" {
			peers++
		}
	}
	if peers > 1 {
		return errors.New("redis.addr, minio.endpoint and file_dir are mutually exclusive peer stores")
	}
	if c.Minio.Endpoint != "" && c.Minio.Bucket == "" {
		return errors.New("minio.bucket is empty")
	}
	return nil
}
