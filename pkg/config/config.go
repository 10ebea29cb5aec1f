package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath     = "config.yaml"
	defaultAddr           = ":8080"
	defaultLLMProvider    = "openai"
	defaultOpenAIModel    = "gpt-4"
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultMaxTokens      = 200
	defaultSpeechProvider = "openai"
	defaultOpenAIVoice    = "alloy"
	defaultOpenAITTSModel = "tts-1"
	defaultElevenVoice    = "JBFqnCBsd6RMkjVDRZzb"
	defaultElevenModel    = "eleven_flash_v2_5"
	defaultStability      = 0.5
	defaultSimilarity     = 0.5
	defaultAvatarModel    = "cjwbw/sadtalker:a519cc0cfebaaeade068b23899165a11ec76aaa1d2b313d40d214f204ec957a3"
	defaultSourceImage    = "https://i.imgur.com/5vPKgb4.jpg"
	defaultPreprocess     = "crop"
	defaultPollInterval   = 2.0
	defaultStorageBackend = "local"
	defaultBucket         = "videos"
	defaultLocalDir       = "./output/videos"
	localVideosPath       = "/videos"
	defaultMetadataDriver = "file"
	defaultMetadataFile   = "./output/videos.json"
	defaultMetadataTable  = "videos"
)

type Config struct {
	OpenAIAPIKey     string `yaml:"-"`
	GroqAPIKey       string `yaml:"-"`
	ElevenLabsAPIKey string `yaml:"-"`
	ReplicateToken   string `yaml:"-"`
	DatabaseURL      string `yaml:"-"`
	MinIOAccessKey   string `yaml:"-"`
	MinIOSecretKey   string `yaml:"-"`
	GCPProject       string `yaml:"-"`

	Server   ServerConfig   `yaml:"server"`
	LLM      LLMConfig      `yaml:"llm"`
	Speech   SpeechConfig   `yaml:"speech"`
	Avatar   AvatarConfig   `yaml:"avatar"`
	Storage  StorageConfig  `yaml:"storage"`
	Metadata MetadataConfig `yaml:"metadata"`
	Secrets  SecretsConfig  `yaml:"secrets"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LLMConfig struct {
	Provider  string `yaml:"provider"` // "openai" or "groq"
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	BaseURL   string `yaml:"base_url"`
}

type SpeechConfig struct {
	Provider   string           `yaml:"provider"` // "openai", "elevenlabs" or "stub"
	OpenAI     OpenAITTSConfig  `yaml:"openai"`
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs"`
}

type OpenAITTSConfig struct {
	Voice string `yaml:"voice"`
	Model string `yaml:"model"`
}

type ElevenLabsConfig struct {
	VoiceID    string  `yaml:"voice_id"`
	Model      string  `yaml:"model"`
	Stability  float64 `yaml:"stability"`
	Similarity float64 `yaml:"similarity"`
}

type AvatarConfig struct {
	Model        string  `yaml:"model"`
	SourceImage  string  `yaml:"source_image"`
	PoseStyle    int     `yaml:"pose_style"`
	Preprocess   string  `yaml:"preprocess"`
	PollInterval float64 `yaml:"poll_interval"`
	BaseURL      string  `yaml:"base_url"`
}

type StorageConfig struct {
	Backend       string      `yaml:"backend"` // "gcs", "minio" or "local"
	Bucket        string      `yaml:"bucket"`
	PublicBaseURL string      `yaml:"public_base_url"`
	GCS           GCSConfig   `yaml:"gcs"`
	MinIO         MinIOConfig `yaml:"minio"`
	Local         LocalConfig `yaml:"local"`
}

type GCSConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
}

type MinIOConfig struct {
	Endpoint string `yaml:"endpoint"`
	UseSSL   bool   `yaml:"use_ssl"`
}

type LocalConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

type MetadataConfig struct {
	Driver string `yaml:"driver"` // "postgres" or "file"
	File   string `yaml:"file"`
	Table  string `yaml:"table"`
}

type SecretsConfig struct {
	Enabled bool     `yaml:"enabled"`
	Names   []string `yaml:"names"`
}

// Load reads .env, environment variables and config.yaml, then resolves
// any missing credentials from Secret Manager when enabled.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := fromEnv()

	if err := loadYAMLConfig(cfg, configPath()); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.Secrets.Enabled {
		if err := resolveSecrets(ctx, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		ElevenLabsAPIKey: os.Getenv("ELEVENLABS_API_KEY"),
		ReplicateToken:   os.Getenv("REPLICATE_API_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MinIOAccessKey:   os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:   os.Getenv("MINIO_SECRET_KEY"),
		GCPProject:       os.Getenv("GOOGLE_CLOUD_PROJECT"),
	}
}

func configPath() string {
	return getEnvOrDefault("NEWSREEL_CONFIG", defaultConfigPath)
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("No config.yaml found, using defaults", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate reports credentials missing for the selected providers.
func (c *Config) Validate() error {
	var missing []string

	switch c.LLM.Provider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "groq":
		if c.GroqAPIKey == "" {
			missing = append(missing, "GROQ_API_KEY")
		}
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}

	switch c.Speech.Provider {
	case "openai":
		if c.OpenAIAPIKey == "" && c.LLM.Provider != "openai" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "elevenlabs":
		if c.ElevenLabsAPIKey == "" {
			missing = append(missing, "ELEVENLABS_API_KEY")
		}
	case "stub":
	default:
		return fmt.Errorf("unknown speech provider: %q", c.Speech.Provider)
	}

	if c.ReplicateToken == "" {
		missing = append(missing, "REPLICATE_API_TOKEN")
	}

	switch c.Storage.Backend {
	case "gcs", "local":
	case "minio":
		if c.Storage.MinIO.Endpoint == "" {
			missing = append(missing, "storage.minio.endpoint")
		}
		if c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			missing = append(missing, "MINIO_ACCESS_KEY/MINIO_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}

	switch c.Metadata.Driver {
	case "file":
	case "postgres":
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown metadata driver: %q", c.Metadata.Driver)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LLMAPIKey returns the key matching the configured LLM provider.
func (c *Config) LLMAPIKey() string {
	if c.LLM.Provider == "groq" {
		return c.GroqAPIKey
	}
	return c.OpenAIAPIKey
}

// LocalBaseURL is the public prefix for the local backend. Unless set
// explicitly it points at the /videos/ mount of this server's own address.
func (c *Config) LocalBaseURL() string {
	if c.Storage.Local.BaseURL != "" {
		return c.Storage.Local.BaseURL
	}

	host, port, err := net.SplitHostPort(c.Server.Addr)
	if err != nil {
		host, port = c.Server.Addr, ""
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}
	return "http://" + host + localVideosPath
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(cfg)
	applyLLMDefaults(cfg)
	applySpeechDefaults(cfg)
	applyAvatarDefaults(cfg)
	applyStorageDefaults(cfg)
	applyMetadataDefaults(cfg)
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = getEnvOrDefault("NEWSREEL_ADDR", defaultAddr)
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
}

func applyLLMDefaults(cfg *Config) {
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultLLMProvider
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultOpenAIModel
		if cfg.LLM.Provider == "groq" {
			cfg.LLM.Model = defaultGroqModel
		}
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = defaultMaxTokens
	}
}

func applySpeechDefaults(cfg *Config) {
	if cfg.Speech.Provider == "" {
		cfg.Speech.Provider = defaultSpeechProvider
	}
	if cfg.Speech.OpenAI.Voice == "" {
		cfg.Speech.OpenAI.Voice = defaultOpenAIVoice
	}
	if cfg.Speech.OpenAI.Model == "" {
		cfg.Speech.OpenAI.Model = defaultOpenAITTSModel
	}
	if cfg.Speech.ElevenLabs.VoiceID == "" {
		cfg.Speech.ElevenLabs.VoiceID = defaultElevenVoice
	}
	if cfg.Speech.ElevenLabs.Model == "" {
		cfg.Speech.ElevenLabs.Model = defaultElevenModel
	}
	if cfg.Speech.ElevenLabs.Stability == 0 {
		cfg.Speech.ElevenLabs.Stability = defaultStability
	}
	if cfg.Speech.ElevenLabs.Similarity == 0 {
		cfg.Speech.ElevenLabs.Similarity = defaultSimilarity
	}
}

func applyAvatarDefaults(cfg *Config) {
	if cfg.Avatar.Model == "" {
		cfg.Avatar.Model = defaultAvatarModel
	}
	if cfg.Avatar.SourceImage == "" {
		cfg.Avatar.SourceImage = defaultSourceImage
	}
	if cfg.Avatar.Preprocess == "" {
		cfg.Avatar.Preprocess = defaultPreprocess
	}
	if cfg.Avatar.PollInterval == 0 {
		cfg.Avatar.PollInterval = defaultPollInterval
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaultStorageBackend
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = defaultBucket
	}
	if cfg.Storage.Local.Dir == "" {
		cfg.Storage.Local.Dir = defaultLocalDir
	}
}

func applyMetadataDefaults(cfg *Config) {
	if cfg.Metadata.Driver == "" {
		cfg.Metadata.Driver = defaultMetadataDriver
	}
	if cfg.Metadata.File == "" {
		cfg.Metadata.File = defaultMetadataFile
	}
	if cfg.Metadata.Table == "" {
		cfg.Metadata.Table = defaultMetadataTable
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
