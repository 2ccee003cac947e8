package config

import (
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	Environment string `koanf:"environment" default:"development"`
	ServerHost  string `koanf:"server_host"`
	ServerPort  int    `koanf:"server_port" default:"3690"`

	// RootDir is the directory the local storage provider serves.
	RootDir    string `koanf:"root_dir" default:"/"`
	ShowHidden bool   `koanf:"show_hidden"`

	ThumbnailConcurrency int           `koanf:"thumbnail_concurrency" default:"2"`
	ThumbnailTimeout     time.Duration `koanf:"thumbnail_timeout" default:"30s"`
	SnippetLines         int           `koanf:"snippet_lines" default:"5"`
	SnippetMaxChars      int           `koanf:"snippet_max_chars" default:"200"`

	ListingChunkSize int           `koanf:"listing_chunk_size" default:"20"`
	ListingChunkWait time.Duration `koanf:"listing_chunk_wait" default:"2ms"`
	ListingTTL       time.Duration `koanf:"listing_ttl" default:"10m"`
}

const (
	configFileENV = "CONFIG_FILE"
	envPrefix     = "SATCHEL_"
)

// New builds the configuration in three layers: struct defaults, an optional
// YAML config file, then SATCHEL_* environment variables.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	if path := os.Getenv(configFileENV); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, "load config file")
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, "load env")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	return cfg, nil
}
