package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = ".syncpoint"
	configType = "yaml"
	envPrefix  = "SYNCPOINT"
)

// Load reads configuration from defaults, an optional YAML file and
// SYNCPOINT_ environment variables, in increasing priority. When path is
// empty the file is searched as .syncpoint.yaml in the working directory and
// $HOME; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Every key needs a default so AutomaticEnv can override it.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("sqlite_path", DefaultSQLitePath)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.bucket", DefaultMinioBucket)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.secure", false)
	v.SetDefault("file_dir", "")
	v.SetDefault("write_timestamps", DefaultWriteTimestamps)
	v.SetDefault("log_level", DefaultLogLevel)
}
