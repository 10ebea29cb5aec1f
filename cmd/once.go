package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"newsreel/internal/app"
	"newsreel/pkg/config"

	"github.com/spf13/cobra"
)

var (
	onceData string
	onceFile string
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Generate a single video",
	Long:  `Run the pipeline once for business data given inline or read from a file.`,
	RunE:  runOnce,
}

func init() {
	onceCmd.Flags().StringVarP(&onceData, "data", "d", "", "Business data to report on")
	onceCmd.Flags().StringVarP(&onceFile, "file", "f", "", "Read business data from a file")
	onceCmd.MarkFlagsMutuallyExclusive("data", "file")
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	data := onceData
	if onceFile != "" {
		raw, err := os.ReadFile(onceFile)
		if err != nil {
			return fmt.Errorf("read business data: %w", err)
		}
		data = string(raw)
	}
	if data == "" {
		return errors.New("please provide --data or --file")
	}

	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	built, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = built.Close() }()

	pipeline := app.NewPipeline(built.Service).WithObserver(func(t app.Transition) {
		if t.To == app.StateFailed {
			return
		}
		slog.Info("Stage complete", "state", t.To)
	})

	slog.Info("Generating video...")
	result, err := pipeline.Generate(ctx, data)
	if err != nil {
		slog.Error("Generation failed", "kind", app.KindOf(err), "error", err)
		return err
	}

	slog.Info("Video generated",
		"url", result.VideoURL,
		"key", result.Key,
		"record", result.RecordID,
	)
	fmt.Println(result.VideoURL)
	return nil
}
