package cmd

import (
	"fmt"

	"newsreel/pkg/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	statusInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	statusSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers are configured",
	Long:  `Load the configuration and report the selected providers and missing credentials.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusLine struct {
	name     string
	detail   string
	ok       bool
	optional bool
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println(statusInfoStyle.Render("\nNewsreel Configuration:\n"))
	for _, line := range statusLines(cfg) {
		fmt.Println(renderStatus(line))
	}

	if err := cfg.Validate(); err != nil {
		fmt.Println()
		fmt.Println(statusErrorStyle.Render("✗ " + err.Error()))
	}
	fmt.Println()
	return nil
}

func statusLines(cfg *config.Config) []statusLine {
	lines := []statusLine{
		credentialLine("Script ("+cfg.LLM.Provider+")", llmKeyName(cfg.LLM.Provider), cfg.LLMAPIKey()),
	}

	switch cfg.Speech.Provider {
	case "openai":
		lines = append(lines, credentialLine("Speech (openai)", "OPENAI_API_KEY", cfg.OpenAIAPIKey))
	case "elevenlabs":
		lines = append(lines, credentialLine("Speech (elevenlabs)", "ELEVENLABS_API_KEY", cfg.ElevenLabsAPIKey))
	default:
		lines = append(lines, statusLine{name: "Speech (" + cfg.Speech.Provider + ")", detail: "no credentials needed", ok: true})
	}

	lines = append(lines, credentialLine("Video (replicate)", "REPLICATE_API_TOKEN", cfg.ReplicateToken))

	switch cfg.Storage.Backend {
	case "minio":
		ok := cfg.MinIOAccessKey != "" && cfg.MinIOSecretKey != ""
		lines = append(lines, statusLine{name: "Storage (minio)", detail: "MINIO_ACCESS_KEY, MINIO_SECRET_KEY", ok: ok})
	case "gcs":
		lines = append(lines, statusLine{name: "Storage (gcs)", detail: "bucket " + cfg.Storage.Bucket, ok: cfg.Storage.Bucket != ""})
	default:
		lines = append(lines, statusLine{name: "Storage (" + cfg.Storage.Backend + ")", detail: cfg.Storage.Local.Dir, ok: true})
	}

	if cfg.Metadata.Driver == "postgres" {
		lines = append(lines, credentialLine("Metadata (postgres)", "DATABASE_URL", cfg.DatabaseURL))
	} else {
		lines = append(lines, statusLine{name: "Metadata (" + cfg.Metadata.Driver + ")", detail: cfg.Metadata.File, ok: true})
	}

	if cfg.Secrets.Enabled {
		lines = append(lines, statusLine{name: "Secret Manager", detail: "project " + cfg.GCPProject, ok: cfg.GCPProject != ""})
	} else {
		lines = append(lines, statusLine{name: "Secret Manager", detail: "not enabled", optional: true})
	}

	return lines
}

func credentialLine(name, key, value string) statusLine {
	if value == "" {
		return statusLine{name: name, detail: "missing " + key}
	}
	return statusLine{name: name, detail: key + " configured", ok: true}
}

func llmKeyName(provider string) string {
	if provider == "groq" {
		return "GROQ_API_KEY"
	}
	return "OPENAI_API_KEY"
}

func renderStatus(line statusLine) string {
	text := line.name + ": " + line.detail
	switch {
	case line.ok:
		return statusSuccessStyle.Render("✓ " + text)
	case line.optional:
		return statusInfoStyle.Render("○ " + text)
	default:
		return statusErrorStyle.Render("✗ " + text)
	}
}
