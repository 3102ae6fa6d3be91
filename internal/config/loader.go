package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	apperrors "github.com/scholarvest/paperscore/pkg/errors"
)

const envPrefix = "PAPERSCORE"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// decode relies on viper's default hooks for "5s"-style durations.
func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "failed to decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads configuration from the given file path (YAML), layered with
// environment variables under the PAPERSCORE_ prefix. Environment always
// wins over file values.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "failed to read config file")
		}
	}
	return decode(v)
}

// LoadFromEnv builds configuration from defaults and environment only.
func LoadFromEnv() (*Config, error) {
	return decode(newViper())
}

// Watch reloads the config file on change and invokes onChange with each
// successfully decoded new configuration. Decode or validation failures keep
// the previous configuration and are reported through onError.
func Watch(path string, onChange func(*Config), onError func(error)) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "failed to read config file")
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onChange != nil {
			onChange(next)
		}
	})
	v.WatchConfig()

	return cfg, nil
}
