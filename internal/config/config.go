package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode `yaml:"mode"`

	Port string `yaml:"port"`

	LLM     LLMConfig     `yaml:"llm"`
	Storage StorageConfig `yaml:"storage"`
	Session SessionConfig `yaml:"session"`
	Limits  LimitsConfig  `yaml:"limits"`
	Log     LogConfig     `yaml:"log"`
}

// LLMConfig selects and configures the response generator backend.
type LLMConfig struct {
	Backend      string `yaml:"backend"` // "mock" | "vertex" | "openai" | "remote"
	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`
	ModelName    string `yaml:"model"`
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`
	OpenAIURL    string `yaml:"openai_base_url"`
	RemoteURL    string `yaml:"remote_url"`
}

type StorageConfig struct {
	Backend      string `yaml:"backend"` // "memory" | "sqlite" | "firestore"
	DataDir      string `yaml:"data_dir"`
	GCPProjectID string `yaml:"gcp_project"`
}

type SessionConfig struct {
	CheckinDelay      time.Duration `yaml:"checkin_delay"`
	CheckinDeferral   time.Duration `yaml:"checkin_deferral"`
	CelebrateDecay    time.Duration `yaml:"celebrate_decay"`
	CompletionDecay   time.Duration `yaml:"completion_decay"`
	RecentWindow      int           `yaml:"recent_window"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	RoadblockRouting  bool          `yaml:"roadblock_routing"`
}

type LimitsConfig struct {
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" | "text"
}

// DefaultConfig returns a Config populated with the stock timings.
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeLocal,
		Port: "8080",
		LLM: LLMConfig{
			Backend:     "mock",
			GCPLocation: "us-central1",
			ModelName:   "gemini-2.5-flash-lite",
			OpenAIModel: "gpt-4o-mini",
		},
		Storage: StorageConfig{
			Backend: "memory",
			DataDir: ".onestep",
		},
		Session: SessionConfig{
			CheckinDelay:      10 * time.Minute,
			CheckinDeferral:   30 * time.Second,
			CelebrateDecay:    3 * time.Second,
			CompletionDecay:   5 * time.Second,
			RecentWindow:      4,
			GenerationTimeout: 60 * time.Second,
		},
		Limits: LimitsConfig{
			RateLimitRequests: 30,
			RateLimitWindow:   15 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// ReadFile overlays the YAML file at path onto cfg.
func ReadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

// Load builds the config: defaults, then the optional YAML file, then env vars.
// An empty path falls back to ONESTEP_CONFIG.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("ONESTEP_CONFIG")
	}
	if path != "" {
		if err := ReadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	switch getEnv("ONESTEP_MODE", string(cfg.Mode)) {
	case "gcp":
		cfg.Mode = ModeGCP
	default:
		cfg.Mode = ModeLocal
	}

	cfg.Port = getEnv("ONESTEP_PORT", getEnv("PORT", cfg.Port))

	cfg.LLM.Backend = getEnv("ONESTEP_LLM_BACKEND", cfg.LLM.Backend)
	if getBoolEnv("ONESTEP_USE_MOCK_LLM", false) {
		cfg.LLM.Backend = "mock"
	}
	cfg.LLM.GCPProjectID = getEnv("ONESTEP_GCP_PROJECT", cfg.LLM.GCPProjectID)
	cfg.LLM.GCPLocation = getEnv("ONESTEP_GCP_LOCATION", cfg.LLM.GCPLocation)
	cfg.LLM.ModelName = getEnv("ONESTEP_MODEL_NAME", cfg.LLM.ModelName)
	cfg.LLM.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.LLM.OpenAIAPIKey)
	cfg.LLM.OpenAIModel = getEnv("ONESTEP_OPENAI_MODEL", cfg.LLM.OpenAIModel)
	cfg.LLM.OpenAIURL = getEnv("ONESTEP_OPENAI_BASE_URL", cfg.LLM.OpenAIURL)
	cfg.LLM.RemoteURL = getEnv("ONESTEP_REMOTE_URL", cfg.LLM.RemoteURL)

	cfg.Storage.Backend = getEnv("ONESTEP_STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.DataDir = getEnv("ONESTEP_DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.GCPProjectID = getEnv("ONESTEP_GCP_PROJECT", cfg.Storage.GCPProjectID)

	cfg.Session.CheckinDelay = getDurationEnv("ONESTEP_CHECKIN_DELAY", cfg.Session.CheckinDelay)
	cfg.Session.CheckinDeferral = getDurationEnv("ONESTEP_CHECKIN_DEFERRAL", cfg.Session.CheckinDeferral)
	cfg.Session.GenerationTimeout = getDurationEnv("ONESTEP_GENERATION_TIMEOUT", cfg.Session.GenerationTimeout)
	cfg.Session.RoadblockRouting = getBoolEnv("ONESTEP_ROADBLOCK_ROUTING", cfg.Session.RoadblockRouting)

	cfg.Limits.RateLimitRequests = getIntEnv("ONESTEP_RATE_LIMIT_REQUESTS", cfg.Limits.RateLimitRequests)
	cfg.Limits.RateLimitWindow = getDurationEnv("ONESTEP_RATE_LIMIT_WINDOW", cfg.Limits.RateLimitWindow)

	cfg.Log.Level = getEnv("ONESTEP_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("ONESTEP_LOG_FORMAT", cfg.Log.Format)
}

// Validate checks the combinations a backend needs to start.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Backend {
	case "mock":
	case "vertex":
		if c.LLM.GCPProjectID == "" || c.LLM.GCPLocation == "" {
			errs = append(errs, errors.New("vertex backend needs ONESTEP_GCP_PROJECT and ONESTEP_GCP_LOCATION"))
		}
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("openai backend needs OPENAI_API_KEY"))
		}
	case "remote":
		if c.LLM.RemoteURL == "" {
			errs = append(errs, errors.New("remote backend needs ONESTEP_REMOTE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm backend %q", c.LLM.Backend))
	}

	switch c.Storage.Backend {
	case "memory", "sqlite":
	case "firestore":
		if c.Storage.GCPProjectID == "" {
			errs = append(errs, errors.New("firestore storage needs ONESTEP_GCP_PROJECT"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}

	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.LLM.GCPProjectID == "" {
		errs = append(errs, errors.New("ONESTEP_GCP_PROJECT must be set in gcp mode"))
	}

	if c.Session.CheckinDelay <= 0 {
		errs = append(errs, errors.New("session.checkin_delay must be positive"))
	}
	if c.Session.RecentWindow <= 0 {
		errs = append(errs, errors.New("session.recent_window must be positive"))
	}
	if c.Limits.RateLimitRequests <= 0 || c.Limits.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("limits must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || strings.EqualFold(v, "true") {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
