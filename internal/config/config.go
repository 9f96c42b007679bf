package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the layout of trackstate.yaml.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Store    Store  `yaml:"store"`
	Serve    Serve  `yaml:"serve"`
}

// Store selects a backend. Options holds the backend specific settings and
// is decoded by the matching Decode method.
type Store struct {
	Backend string         `yaml:"backend"`
	Options map[string]any `yaml:"options"`
}

type Serve struct {
	Addr string `yaml:"addr"`
}

type FileOptions struct {
	Dir string `mapstructure:"dir"`
}

type RedisOptions struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type S3Options struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PathStyle bool   `mapstructure:"path_style"`
}

// Default is used when no file is present.
func Default() Config {
	return Config{
		LogLevel: "info",
		Store:    Store{Backend: "memory"},
		Serve:    Serve{Addr: ":8080"},
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

func (s Store) decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(s.Options); err != nil {
		return fmt.Errorf("invalid %s store options: %w", s.Backend, err)
	}
	return nil
}

func (s Store) File() (FileOptions, error) {
	opts := FileOptions{Dir: ".trackstate"}
	err := s.decode(&opts)
	return opts, err
}

func (s Store) Redis() (RedisOptions, error) {
	opts := RedisOptions{Addr: "localhost:6379", Prefix: "trackstate:"}
	err := s.decode(&opts)
	return opts, err
}

func (s Store) S3() (S3Options, error) {
	var opts S3Options
	if err := s.decode(&opts); err != nil {
		return opts, err
	}
	if opts.Bucket == "" {
		return opts, fmt.Errorf("invalid s3 store options: bucket is required")
	}
	return opts, nil
}
