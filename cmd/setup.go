package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Newsreel",
	Long:  `Collect API keys, create the output directory and write a .env file.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// envOrder is the order keys are written to .env.
var envOrder = []string{
	"OPENAI_API_KEY",
	"REPLICATE_API_TOKEN",
	"GROQ_API_KEY",
	"ELEVENLABS_API_KEY",
	"DATABASE_URL",
	"MINIO_ACCESS_KEY",
	"MINIO_SECRET_KEY",
	"GOOGLE_CLOUD_PROJECT",
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("🎬 Newsreel Setup"))

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func createDirectories() error {
	if err := os.MkdirAll("output/videos", 0755); err != nil {
		return fmt.Errorf("create output/videos: %w", err)
	}
	fmt.Println(successStyle.Render("✓ Created output/videos"))
	return nil
}

func configureEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureRequiredKeys(env); err != nil {
		return err
	}

	if err := configureOptionalKeys(env); err != nil {
		return err
	}

	if err := configureGCP(env); err != nil {
		return err
	}

	return writeEnvFile(".env", env)
}

func configureRequiredKeys(env map[string]string) error {
	var openaiKey, replicateToken string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key").
				Description("https://platform.openai.com/api-keys").
				EchoMode(huh.EchoModePassword).
				Value(&openaiKey).
				Validate(required("OpenAI API Key")),
			huh.NewInput().
				Title("Replicate API Token").
				Description("https://replicate.com/account/api-tokens").
				EchoMode(huh.EchoModePassword).
				Value(&replicateToken).
				Validate(required("Replicate API Token")),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	env["OPENAI_API_KEY"] = strings.TrimSpace(openaiKey)
	env["REPLICATE_API_TOKEN"] = strings.TrimSpace(replicateToken)
	return nil
}

func configureOptionalKeys(env map[string]string) error {
	var selected []string
	if err := huh.NewMultiSelect[string]().
		Title("Optional providers").
		Description("Select the backends you plan to use").
		Options(
			huh.NewOption("Groq (script generation)", "groq"),
			huh.NewOption("ElevenLabs (narration)", "elevenlabs"),
			huh.NewOption("PostgreSQL (video metadata)", "postgres"),
			huh.NewOption("MinIO (video storage)", "minio"),
		).
		Value(&selected).
		Run(); err != nil {
		return err
	}

	prompts := map[string][]struct{ title, key string }{
		"groq":       {{"Groq API Key", "GROQ_API_KEY"}},
		"elevenlabs": {{"ElevenLabs API Key", "ELEVENLABS_API_KEY"}},
		"postgres":   {{"Database URL", "DATABASE_URL"}},
		"minio":      {{"MinIO Access Key", "MINIO_ACCESS_KEY"}, {"MinIO Secret Key", "MINIO_SECRET_KEY"}},
	}

	for _, name := range selected {
		for _, p := range prompts[name] {
			var value string
			if err := huh.NewInput().
				Title(p.title).
				Value(&value).
				Run(); err != nil {
				return err
			}
			if value = strings.TrimSpace(value); value != "" {
				env[p.key] = value
			}
		}
	}
	return nil
}

func configureGCP(env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Used for Cloud Storage uploads and Secret Manager").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	var project string
	if err := huh.NewInput().
		Title("Project ID").
		Value(&project).
		Validate(required("Project ID")).
		Run(); err != nil {
		return err
	}
	project = strings.TrimSpace(project)
	env["GOOGLE_CLOUD_PROJECT"] = project

	if !commandExists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - enable storage and secretmanager APIs manually"))
		return nil
	}

	err := runWithSpinner("Enabling APIs", func() error {
		return runSetupCmd("gcloud", "services", "enable",
			"storage.googleapis.com", "secretmanager.googleapis.com",
			"--project", project)
	})
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}
	return nil
}

func writeEnvFile(path string, env map[string]string) error {
	if err := os.WriteFile(path, []byte(renderEnv(env)), 0600); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ Created " + path))
	printNextSteps()
	return nil
}

func renderEnv(env map[string]string) string {
	var b strings.Builder
	for _, key := range envOrder {
		if val, ok := env[key]; ok && val != "" {
			fmt.Fprintf(&b, "%s=%s\n", key, val)
		}
	}
	return b.String()
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Check providers: newsreel status")
	fmt.Println("  2. Try it: newsreel once -d \"Q3 revenue up 20%\"")
	fmt.Println("  3. Start the API: newsreel serve")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runSetupCmd(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %s", err, stderr.String())
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
