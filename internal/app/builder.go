package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"newsreel/internal/avatar"
	"newsreel/internal/avatar/replicate"
	"newsreel/internal/llm"
	"newsreel/internal/llm/groq"
	"newsreel/internal/llm/openai"
	"newsreel/internal/metadata"
	"newsreel/internal/publish"
	"newsreel/internal/speech"
	"newsreel/internal/speech/elevenlabs"
	openaitts "newsreel/internal/speech/openai"
	"newsreel/internal/storage"
	"newsreel/pkg/config"
	"newsreel/pkg/prompts"
)

type BuildResult struct {
	Service *Service
	// LocalDir is set when videos are written to the local backend.
	LocalDir string

	closers []io.Closer
}

func (r *BuildResult) Close() error {
	var firstErr error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func BuildService(ctx context.Context, cfg *config.Config) (*BuildResult, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg, p)
	if err != nil {
		return nil, err
	}

	ttsProvider, err := buildSpeech(cfg)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{}

	blobs, err := buildStorage(ctx, cfg, result)
	if err != nil {
		_ = result.Close()
		return nil, err
	}

	records, err := buildMetadata(ctx, cfg, result)
	if err != nil {
		_ = result.Close()
		return nil, err
	}

	result.Service = NewService(ServiceOptions{
		Config:    cfg,
		LLM:       llmClient,
		TTS:       ttsProvider,
		Avatar:    buildAvatar(cfg),
		Publisher: publish.New(blobs, records),
		Records:   records,
	})

	slog.Debug("Service built",
		"llm", cfg.LLM.Provider,
		"speech", cfg.Speech.Provider,
		"storage", cfg.Storage.Backend,
		"metadata", cfg.Metadata.Driver,
	)
	return result, nil
}

func buildLLM(cfg *config.Config, p *prompts.Prompts) (llm.Client, error) {
	opts := llm.Options{
		APIKey:    cfg.LLMAPIKey(),
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		BaseURL:   cfg.LLM.BaseURL,
	}

	switch cfg.LLM.Provider {
	case "openai":
		return openai.NewClient(opts, p), nil
	case "groq":
		return groq.NewClient(opts, p)
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.LLM.Provider)
	}
}

func buildSpeech(cfg *config.Config) (speech.Provider, error) {
	switch cfg.Speech.Provider {
	case "openai":
		return openaitts.NewClient(openaitts.Options{
			APIKey: cfg.OpenAIAPIKey,
			Voice:  cfg.Speech.OpenAI.Voice,
			Model:  cfg.Speech.OpenAI.Model,
		}), nil
	case "elevenlabs":
		return elevenlabs.NewClient(elevenlabs.Config{
			APIKey:     cfg.ElevenLabsAPIKey,
			VoiceID:    cfg.Speech.ElevenLabs.VoiceID,
			Model:      cfg.Speech.ElevenLabs.Model,
			Stability:  cfg.Speech.ElevenLabs.Stability,
			Similarity: cfg.Speech.ElevenLabs.Similarity,
		}), nil
	case "stub":
		return speech.NewStubProvider(speech.DefaultWordsPerMinute), nil
	default:
		return nil, fmt.Errorf("unknown speech provider: %q", cfg.Speech.Provider)
	}
}

func buildAvatar(cfg *config.Config) avatar.Synthesizer {
	return replicate.NewClient(replicate.Options{
		Token:        cfg.ReplicateToken,
		Model:        cfg.Avatar.Model,
		PoseStyle:    cfg.Avatar.PoseStyle,
		Preprocess:   cfg.Avatar.Preprocess,
		PollInterval: time.Duration(cfg.Avatar.PollInterval * float64(time.Second)),
		BaseURL:      cfg.Avatar.BaseURL,
	})
}

func buildStorage(ctx context.Context, cfg *config.Config, result *BuildResult) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "gcs":
		gcs, err := storage.NewGCSStorage(ctx, storage.GCSOptions{
			Bucket:          cfg.Storage.Bucket,
			CredentialsFile: cfg.Storage.GCS.CredentialsFile,
			Endpoint:        cfg.Storage.GCS.Endpoint,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		result.closers = append(result.closers, gcs)
		return gcs, nil
	case "minio":
		minio, err := storage.NewMinIOStorage(storage.MinIOOptions{
			Endpoint:      cfg.Storage.MinIO.Endpoint,
			AccessKey:     cfg.MinIOAccessKey,
			SecretKey:     cfg.MinIOSecretKey,
			Bucket:        cfg.Storage.Bucket,
			UseSSL:        cfg.Storage.MinIO.UseSSL,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return nil, err
		}
		if err := minio.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return minio, nil
	case "local":
		baseURL := cfg.LocalBaseURL()
		if cfg.Storage.PublicBaseURL != "" {
			baseURL = cfg.Storage.PublicBaseURL
		}
		result.LocalDir = cfg.Storage.Local.Dir
		return storage.NewLocalStorage(cfg.Storage.Local.Dir, baseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

func buildMetadata(ctx context.Context, cfg *config.Config, result *BuildResult) (metadata.Store, error) {
	switch cfg.Metadata.Driver {
	case "postgres":
		store, err := metadata.OpenPostgres(ctx, cfg.DatabaseURL, cfg.Metadata.Table)
		if err != nil {
			return nil, err
		}
		result.closers = append(result.closers, store)
		return store, nil
	case "file":
		return metadata.OpenFileStore(cfg.Metadata.File)
	default:
		return nil, fmt.Errorf("unknown metadata driver: %q", cfg.Metadata.Driver)
	}
}
