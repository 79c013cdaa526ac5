package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ruchit878/smart-job-kit-generator/internal/backend"
	"github.com/ruchit878/smart-job-kit-generator/internal/config"
	"github.com/ruchit878/smart-job-kit-generator/internal/observability/logging"
	"github.com/ruchit878/smart-job-kit-generator/internal/qa"
)

var (
	verbose  bool
	quiet    bool
	reportID string
)

var rootCmd = &cobra.Command{
	Use:   "qakit",
	Short: "Parse and export interview Q&A transcripts",
	Long: `qakit turns a raw "Q1: ... A1: ..." interview transcript into structured
question/answer pairs, Markdown documents and copy-ready blocks.

The transcript is read from a file argument, from stdin, or fetched from the
AI backend with --report.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func setupLogging() {
	level := "info"
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	logging.Init(logging.Config{Level: level, Format: "console"})
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVarP(&reportID, "report", "r", "", "fetch the transcript for this report ID from the AI backend")
}

// loadPairs reads the transcript from --report, the file argument or stdin
// and parses it.
func loadPairs(cmd *cobra.Command, args []string) ([]qa.Pair, error) {
	raw, err := loadTranscript(cmd.Context(), cmd.InOrStdin(), args)
	if err != nil {
		return nil, err
	}

	pairs, pass := qa.ParseWithPass(raw)
	logger := logging.WithComponent("qakit")
	logger.Debug().
		Str("pass", string(pass)).
		Int("pairs", len(pairs)).
		Msg("Transcript parsed")

	if len(pairs) == 0 {
		return nil, errors.New("no Q&A found")
	}
	return pairs, nil
}

func loadTranscript(ctx context.Context, stdin io.Reader, args []string) (string, error) {
	if reportID != "" {
		_ = godotenv.Load()
		cfg := config.Load()
		client := backend.New(backend.Config{
			BaseURL:    cfg.Backend.BaseURL,
			Timeout:    cfg.Backend.Timeout,
			MaxRetries: cfg.Backend.MaxRetries,
		})
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		return client.GenerateQuestionAnswers(ctx, reportID)
	}

	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read transcript: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
