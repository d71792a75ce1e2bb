package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alkime/liftlog/internal/listen"
	"github.com/alkime/liftlog/internal/session"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvProduction represents the production environment.
	EnvProduction = "production"

	// Prefix is prepended to every environment variable, e.g. LIFTLOG_PORT.
	Prefix = "liftlog"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env  string `envconfig:"ENV" default:"development"`
	Port string `envconfig:"PORT" default:"8080"`

	// Security settings
	HSTSMaxAge int    `envconfig:"HSTS_MAX_AGE" default:"31536000"`
	CSPMode    string `envconfig:"CSP_MODE" default:"relaxed"`

	// Logging settings
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Storage
	DBPath string `envconfig:"DB_PATH"`
	UserID string `envconfig:"USER_ID" default:"local"`

	// Services. Empty keys fall back to the keychain.
	OpenAIAPIKey       string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey    string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel     string `envconfig:"ANTHROPIC_MODEL"`
	TranscriptionModel string `envconfig:"TRANSCRIPTION_MODEL" default:"whisper-1"`
	SpeechModel        string `envconfig:"SPEECH_MODEL" default:"gpt-4o-mini-tts"`
	SpeechVoice        string `envconfig:"SPEECH_VOICE" default:"alloy"`

	// Listening budgets
	SetMaxAttempts     int           `envconfig:"SET_ATTEMPTS" default:"6"`
	SetChunkDuration   time.Duration `envconfig:"SET_CHUNK_DURATION" default:"5s"`
	YesNoMaxAttempts   int           `envconfig:"YESNO_ATTEMPTS" default:"3"`
	YesNoChunkDuration time.Duration `envconfig:"YESNO_CHUNK_DURATION" default:"3s"`
	TranscribeTimeout  time.Duration `envconfig:"TRANSCRIBE_TIMEOUT" default:"10s"`
	ExtractTimeout     time.Duration `envconfig:"EXTRACT_TIMEOUT" default:"15s"`
	OuterAttempts      int           `envconfig:"OUTER_ATTEMPTS" default:"4"`
	AmbiguousPolicy    string        `envconfig:"AMBIGUOUS_POLICY" default:"abandon"`

	// Audio
	SampleRate  int    `envconfig:"SAMPLE_RATE" default:"16000"`
	InputDevice string `envconfig:"INPUT_DEVICE"`
	WorkDir     string `envconfig:"WORK_DIR"`
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() (*Config, error) {
	// Try to load .env file (optional for development)
	if err := godotenv.Load(); err != nil {
		// Not an error if file doesn't exist (expected in production)
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	return Process()
}

// Process reads the environment without touching .env.
func Process() (*Config, error) {
	var config Config
	if err := envconfig.Process(Prefix, &config); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the listening budgets and policy names.
func (c *Config) Validate() error {
	switch {
	case c.SetMaxAttempts < 1:
		return fmt.Errorf("SET_ATTEMPTS must be at least 1, got %d", c.SetMaxAttempts)
	case c.YesNoMaxAttempts < 1:
		return fmt.Errorf("YESNO_ATTEMPTS must be at least 1, got %d", c.YesNoMaxAttempts)
	case c.OuterAttempts < 1:
		return fmt.Errorf("OUTER_ATTEMPTS must be at least 1, got %d", c.OuterAttempts)
	case c.SetChunkDuration <= 0, c.YesNoChunkDuration <= 0, c.TranscribeTimeout <= 0:
		return fmt.Errorf("chunk durations and transcription timeout must be positive")
	case c.ExtractTimeout <= 0:
		return fmt.Errorf("EXTRACT_TIMEOUT must be positive, got %s", c.ExtractTimeout)
	}

	switch session.AmbiguousPolicy(c.AmbiguousPolicy) {
	case session.AmbiguousAbandon, session.AmbiguousButtons:
	default:
		return fmt.Errorf("unknown AMBIGUOUS_POLICY %q", c.AmbiguousPolicy)
	}

	return nil
}

// SetOptions are the workout-set listener budgets.
func (c *Config) SetOptions() listen.SetOptions {
	opts := listen.DefaultSetOptions()
	opts.MaxAttempts = c.SetMaxAttempts
	opts.ChunkDuration = c.SetChunkDuration
	opts.TranscribeTimeout = c.TranscribeTimeout
	return opts
}

// YesNoOptions are the yes/no listener budgets.
func (c *Config) YesNoOptions() listen.YesNoOptions {
	opts := listen.DefaultYesNoOptions()
	opts.MaxAttempts = c.YesNoMaxAttempts
	opts.ChunkDuration = c.YesNoChunkDuration
	opts.TranscribeTimeout = c.TranscribeTimeout
	return opts
}

// Policy is the session policy with the configured budgets.
func (c *Config) Policy() session.Policy {
	p := session.DefaultPolicy()
	p.OuterAttempts = c.OuterAttempts
	p.SetListen = c.SetOptions()
	p.YesNoListen = c.YesNoOptions()
	p.OnAmbiguous = session.AmbiguousPolicy(c.AmbiguousPolicy)
	return p
}

// BuildCSP constructs Content Security Policy based on mode.
func BuildCSP(mode string) string {
	if mode == "strict" {
		// Production CSP
		return "default-src 'none'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'none'; " +
			"form-action 'none'"
	}

	// Development/relaxed CSP
	return "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data:"
}
