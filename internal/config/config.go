// Package config loads kiosk configuration from a YAML file with
// environment-variable overrides for deployment and secrets. Components
// receive plain values through their constructors; nothing here is global.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the docent server.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Storage  StorageConfig  `yaml:"storage"`
	Answer   AnswerConfig   `yaml:"answer"`
	Task     TaskConfig     `yaml:"task"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ProviderConfig holds cloud provider credentials and endpoints. SecretID
// and SecretKey normally come from the environment, not the file.
type ProviderConfig struct {
	SecretID    string `yaml:"secret_id"`
	SecretKey   string `yaml:"secret_key"`
	Region      string `yaml:"region"`
	ChatModel   string `yaml:"chat_model"`
	LLMEndpoint string `yaml:"llm_endpoint"`
	ASREndpoint string `yaml:"asr_endpoint"`
	TTSEndpoint string `yaml:"tts_endpoint"`
}

// StorageConfig holds data paths.
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	FAQPath string `yaml:"faq_path"`
}

// AnswerConfig tunes the answer pipeline.
type AnswerConfig struct {
	TopK             int     `yaml:"top_k"`
	FAQThreshold     float64 `yaml:"faq_threshold"`
	MaxSpeechSeconds float64 `yaml:"max_speech_seconds"`
	// CatalogMaxAge caches the document snapshot for this long; zero keeps
	// the original always-fresh behavior (one store read per query).
	CatalogMaxAge Duration `yaml:"catalog_max_age"`
	// Preamble is the exhibition introduction injected into system prompts.
	Preamble string `yaml:"preamble"`
}

// TaskConfig tunes async task polling.
type TaskConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	Timeout      Duration `yaml:"timeout"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "2s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 2123,
		},
		Storage: StorageConfig{
			DataDir: "data",
			FAQPath: "knowledge/faq.json",
		},
		Answer: AnswerConfig{
			TopK:             8,
			FAQThreshold:     0.7,
			MaxSpeechSeconds: 30,
		},
		Task: TaskConfig{
			PollInterval: Duration(1500 * time.Millisecond),
			Timeout:      Duration(60 * time.Second),
		},
	}
}

// Load reads path (optional; pass "" for defaults), applies DOCENT_* env
// overrides, and validates that credentials are present.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if cfg.Provider.SecretID == "" || cfg.Provider.SecretKey == "" {
		return Config{}, fmt.Errorf("missing provider credentials: set DOCENT_SECRET_ID and DOCENT_SECRET_KEY")
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment override file values. Secrets are
// expected to arrive this way.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Provider.SecretID, "DOCENT_SECRET_ID")
	setString(&cfg.Provider.SecretKey, "DOCENT_SECRET_KEY")
	setString(&cfg.Provider.Region, "DOCENT_REGION")
	setString(&cfg.Provider.ChatModel, "DOCENT_CHAT_MODEL")
	setString(&cfg.Provider.LLMEndpoint, "DOCENT_LLM_ENDPOINT")
	setString(&cfg.Provider.ASREndpoint, "DOCENT_ASR_ENDPOINT")
	setString(&cfg.Provider.TTSEndpoint, "DOCENT_TTS_ENDPOINT")
	setString(&cfg.Storage.DataDir, "DOCENT_DATA_DIR")
	setString(&cfg.Storage.FAQPath, "DOCENT_FAQ_PATH")

	if v := os.Getenv("DOCENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DOCENT_DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
