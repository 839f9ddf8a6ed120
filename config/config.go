package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

const (
	SourceMicrophone = "microphone"
	SourceHTTP       = "http"
	SourceFile       = "file"

	ProviderGoogle  = "google"
	ProviderWhisper = "whisper"
	ProviderNone    = "none"
)

type Config struct {
	Notes    NotesConfig    `yaml:"notes"`
	Audio    AudioConfig    `yaml:"audio"`
	Speech   SpeechConfig   `yaml:"speech"`
	Google   GoogleConfig   `yaml:"google"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Pushover PushoverConfig `yaml:"pushover"`
	Log      LogConfig      `yaml:"log"`
}

type NotesConfig struct {
	Dir  string `yaml:"dir"`
	Page string `yaml:"page"`
}

type AudioConfig struct {
	Source           string `yaml:"source"`
	HTTPAddr         string `yaml:"http_addr"`
	FileDir          string `yaml:"file_dir"`
	SampleRate       int    `yaml:"sample_rate"`
	AuthToken        string `yaml:"auth_token"`
	Calibration      string `yaml:"calibration"`
	Pause            string `yaml:"pause"`
	MaxDuration      string `yaml:"max_duration"`
	SilenceThreshold int    `yaml:"silence_threshold"`
}

type SpeechConfig struct {
	Provider    string `yaml:"provider"`
	Language    string `yaml:"language"`
	MaxAttempts int    `yaml:"max_attempts"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Notes.Dir == "" {
		c.Notes.Dir = "."
	}
	if c.Notes.Page == "" {
		c.Notes.Page = "notes"
	}
	if c.Audio.Source == "" {
		c.Audio.Source = SourceMicrophone
	}
	if c.Audio.HTTPAddr == "" {
		c.Audio.HTTPAddr = ":8080"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Calibration == "" {
		c.Audio.Calibration = "500ms"
	}
	if c.Audio.Pause == "" {
		c.Audio.Pause = "800ms"
	}
	if c.Audio.MaxDuration == "" {
		c.Audio.MaxDuration = "15s"
	}
	if c.Audio.SilenceThreshold == 0 {
		c.Audio.SilenceThreshold = 500
	}
	if c.Speech.Provider == "" {
		c.Speech.Provider = ProviderGoogle
	}
	if c.Speech.Language == "" {
		c.Speech.Language = "en-US"
	}
	if c.Speech.MaxAttempts == 0 {
		c.Speech.MaxAttempts = 1
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "whisper-1"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := c.Speech.Validate(); err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	if c.Speech.Provider == ProviderWhisper {
		if err := validation.ValidateStruct(&c.OpenAI,
			validation.Field(&c.OpenAI.APIKey, validation.Required),
			validation.Field(&c.OpenAI.BaseURL, validation.Required),
		); err != nil {
			return fmt.Errorf("openai: %w", err)
		}
	}
	if c.Pushover.Enabled {
		if err := validation.ValidateStruct(&c.Pushover,
			validation.Field(&c.Pushover.Token, validation.Required),
			validation.Field(&c.Pushover.UserKey, validation.Required),
		); err != nil {
			return fmt.Errorf("pushover: %w", err)
		}
	}
	return validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Log.Format, validation.In("text", "json")),
	)
}

func (c *AudioConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required, validation.In(SourceMicrophone, SourceHTTP, SourceFile)),
		validation.Field(&c.SampleRate, validation.Min(8000)),
		validation.Field(&c.SilenceThreshold, validation.Min(1)),
		validation.Field(&c.Calibration, validation.By(isDuration)),
		validation.Field(&c.Pause, validation.By(isPositiveDuration)),
		validation.Field(&c.MaxDuration, validation.By(isPositiveDuration)),
	)
}

// Durations returns the parsed calibration, pause and max recording durations.
func (c *AudioConfig) Durations() (calibration, pause, maxDuration time.Duration) {
	calibration, _ = time.ParseDuration(c.Calibration)
	pause, _ = time.ParseDuration(c.Pause)
	maxDuration, _ = time.ParseDuration(c.MaxDuration)
	return calibration, pause, maxDuration
}

func (c *SpeechConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required, validation.In(ProviderGoogle, ProviderWhisper, ProviderNone)),
		validation.Field(&c.Language, validation.Required),
		validation.Field(&c.MaxAttempts, validation.Min(1)),
	)
}

func (c LogConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func isDuration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration such as 500ms")
	}
	if d < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}

// isPositiveDuration guards the limits that end a recording; without them the
// microphone would never stop.
func isPositiveDuration(value interface{}) error {
	if err := isDuration(value); err != nil {
		return err
	}
	s, _ := value.(string)
	if d, _ := time.ParseDuration(s); s != "" && d == 0 {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}
