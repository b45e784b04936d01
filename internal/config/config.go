// Package config loads the study configuration from a YAML file, an optional
// .env file and TIMBRE_* environment variables, in that order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/timbre/internal/compose"
	"github.com/aretw0/timbre/internal/logging"
	"github.com/aretw0/timbre/internal/trialgen"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TIMBRE_"

type Audio struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
}

type Dissimilarity struct {
	ChunkSize int `yaml:"chunk_size"`
}

type Server struct {
	Addr     string `yaml:"addr"`
	Endpoint string `yaml:"endpoint"`
}

type Redis struct {
	URL    string        `yaml:"url"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

type Sections struct {
	Welcome        bool `yaml:"welcome"`
	HeadphoneCheck bool `yaml:"headphone_check"`
}

// Config is the full study configuration.
type Config struct {
	Audio         Audio         `yaml:"audio"`
	Dissimilarity Dissimilarity `yaml:"dissimilarity"`
	Server        Server        `yaml:"server"`
	Redis         Redis         `yaml:"redis"`
	Results       struct {
		Dir string `yaml:"dir"`

		// Redact lists regular expressions matched against response value
		// keys; matching values are masked before storage.
		Redact []string `yaml:"redact"`

		// Key is a base64 AES-256 key. When set, stored submissions are sealed.
		Key string `yaml:"key"`
	} `yaml:"results"`
	Export struct {
		Dir string `yaml:"dir"`
	} `yaml:"export"`
	Templates struct {
		Dir string `yaml:"dir"`
	} `yaml:"templates"`
	Contact struct {
		Email string `yaml:"email"`
	} `yaml:"contact"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Sections Sections `yaml:"sections"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	cfg := &Config{
		Audio:         Audio{Dir: "audio", Extension: trialgen.DefaultExtension},
		Dissimilarity: Dissimilarity{ChunkSize: compose.DefaultChunkSize},
		Server:        Server{Addr: ":8080"},
		Sections:      Sections{Welcome: true, HeadphoneCheck: true},
	}
	cfg.Results.Dir = "results"
	cfg.Export.Dir = "."
	cfg.Log.Level = "info"
	return cfg
}

// Load reads path (optional), then envFile (optional), then the environment.
// A missing file at either path is not an error unless it was named explicitly.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &domain.ConfigurationError{Reason: "read " + path, Cause: err}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &domain.ConfigurationError{Reason: "parse " + path, Cause: err}
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, &domain.ConfigurationError{Reason: "load " + envFile, Cause: err}
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &domain.ConfigurationError{Reason: "load .env", Cause: err}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Audio.Dir, "AUDIO_DIR")
	setString(&c.Audio.Extension, "AUDIO_EXTENSION")
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Server.Endpoint, "SERVER_ENDPOINT")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Redis.Prefix, "REDIS_PREFIX")
	setString(&c.Results.Dir, "RESULTS_DIR")
	setString(&c.Export.Dir, "EXPORT_DIR")
	setString(&c.Templates.Dir, "TEMPLATES_DIR")
	setString(&c.Contact.Email, "CONTACT_EMAIL")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Results.Key, "RESULTS_KEY")
	if v, ok := lookup("RESULTS_REDACT"); ok {
		c.Results.Redact = strings.Split(v, ",")
	}

	if v, ok := lookup("CHUNK_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigurationError{Reason: EnvPrefix + "CHUNK_SIZE", Cause: err}
		}
		c.Dissimilarity.ChunkSize = n
	}
	if v, ok := lookup("REDIS_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &domain.ConfigurationError{Reason: EnvPrefix + "REDIS_TTL", Cause: err}
		}
		c.Redis.TTL = d
	}
	for key, dst := range map[string]*bool{
		"WELCOME":         &c.Sections.Welcome,
		"HEADPHONE_CHECK": &c.Sections.HeadphoneCheck,
	} {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return &domain.ConfigurationError{Reason: EnvPrefix + key, Cause: err}
			}
			*dst = b
		}
	}
	return nil
}

// Validate rejects settings the study cannot run with.
func (c *Config) Validate() error {
	if c.Dissimilarity.ChunkSize <= 0 {
		return &domain.ConfigurationError{Reason: fmt.Sprintf("dissimilarity.chunk_size must be positive, got %d", c.Dissimilarity.ChunkSize)}
	}
	if c.Audio.Extension != "" && !strings.HasPrefix(c.Audio.Extension, ".") {
		return &domain.ConfigurationError{Reason: fmt.Sprintf("audio.extension must start with a dot, got %q", c.Audio.Extension)}
	}
	if c.Redis.TTL < 0 {
		return &domain.ConfigurationError{Reason: "redis.ttl must not be negative"}
	}
	for _, p := range c.Results.Redact {
		if _, err := regexp.Compile(p); err != nil {
			return &domain.ConfigurationError{Reason: "results.redact", Cause: err}
		}
	}
	if c.Results.Key != "" {
		if _, err := c.ResultsKey(); err != nil {
			return err
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return &domain.ConfigurationError{Reason: "log.level", Cause: err}
	}
	return nil
}

// ResultsKey decodes Results.Key. It returns nil when no key is set.
func (c *Config) ResultsKey() ([]byte, error) {
	if c.Results.Key == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.Results.Key)
	if err != nil {
		return nil, &domain.ConfigurationError{Reason: "results.key", Cause: err}
	}
	if len(key) != 32 {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("results.key must decode to 32 bytes, got %d", len(key))}
	}
	return key, nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}
