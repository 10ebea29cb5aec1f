package config

import (
	"context"
	"fmt"
	"log/slog"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type secretAccessor interface {
	Access(ctx context.Context, name string) (string, error)
}

type gcpSecrets struct {
	client  *secretmanager.Client
	project string
}

func (s *gcpSecrets) Access(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

func resolveSecrets(ctx context.Context, cfg *Config) error {
	if cfg.GCPProject == "" {
		return fmt.Errorf("secrets enabled but GOOGLE_CLOUD_PROJECT is not set")
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	return fillSecrets(ctx, cfg, &gcpSecrets{client: client, project: cfg.GCPProject})
}

// fillSecrets only touches credentials that are still empty, so env and
// .env values take precedence over Secret Manager. Without explicit names it
// resolves the credentials the selected providers use.
func fillSecrets(ctx context.Context, cfg *Config, accessor secretAccessor) error {
	targets := cfg.secretTargets()

	names := cfg.Secrets.Names
	if len(names) == 0 {
		names = cfg.credentialNames()
	}

	for _, name := range names {
		field, ok := targets[name]
		if !ok {
			return fmt.Errorf("unknown secret name: %s", name)
		}
		if *field != "" {
			continue
		}

		value, err := accessor.Access(ctx, name)
		if err != nil {
			return err
		}
		*field = value
		slog.Debug("Resolved secret", "name", name)
	}
	return nil
}

func (c *Config) secretTargets() map[string]*string {
	return map[string]*string{
		"OPENAI_API_KEY":      &c.OpenAIAPIKey,
		"GROQ_API_KEY":        &c.GroqAPIKey,
		"ELEVENLABS_API_KEY":  &c.ElevenLabsAPIKey,
		"REPLICATE_API_TOKEN": &c.ReplicateToken,
		"DATABASE_URL":        &c.DatabaseURL,
		"MINIO_ACCESS_KEY":    &c.MinIOAccessKey,
		"MINIO_SECRET_KEY":    &c.MinIOSecretKey,
	}
}

// credentialNames lists the secrets the selected providers read, in a stable order.
func (c *Config) credentialNames() []string {
	names := []string{"REPLICATE_API_TOKEN"}

	switch c.LLM.Provider {
	case "groq":
		names = append(names, "GROQ_API_KEY")
	default:
		names = append(names, "OPENAI_API_KEY")
	}

	switch c.Speech.Provider {
	case "openai":
		if c.LLM.Provider == "groq" {
			names = append(names, "OPENAI_API_KEY")
		}
	case "elevenlabs":
		names = append(names, "ELEVENLABS_API_KEY")
	}

	if c.Storage.Backend == "minio" {
		names = append(names, "MINIO_ACCESS_KEY", "MINIO_SECRET_KEY")
	}
	if c.Metadata.Driver == "postgres" {
		names = append(names, "DATABASE_URL")
	}
	return names
}
