package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ruchit878/smart-job-kit-generator/internal/qa"
)

var parseCmd = &cobra.Command{
	Use:   "parse [transcript-file]",
	Short: "Print the parsed Q&A pairs as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := loadTranscript(cmd.Context(), cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		pairs := qa.Parse(raw)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Pairs []qa.Pair `json:"pairs"`
			Count int       `json:"count"`
		}{pairs, len(pairs)})
	},
}

var markdownOutput string

var markdownCmd = &cobra.Command{
	Use:   "markdown [transcript-file]",
	Short: "Render the Q&A as a Markdown document",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := loadPairs(cmd, args)
		if err != nil {
			return err
		}
		md := qa.ToMarkdown(pairs)

		if markdownOutput == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), md)
			return err
		}
		if err := os.WriteFile(markdownOutput, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d questions to %s\n", len(pairs), markdownOutput)
		return nil
	},
}

var clipCmd = &cobra.Command{
	Use:   "clip <index> [transcript-file]",
	Short: "Print one question and answer ready to paste",
	Long:  "Print the copy-ready block of the question at the 1-based index.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil || index < 1 {
			return fmt.Errorf("index must be a positive integer, got %q", args[0])
		}

		pairs, err := loadPairs(cmd, args[1:])
		if err != nil {
			return err
		}
		if index > len(pairs) {
			return fmt.Errorf("question %d not found; transcript has %d", index, len(pairs))
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), qa.ToClipboardBlock(pairs[index-1], index))
		return err
	},
}

func init() {
	markdownCmd.Flags().StringVarP(&markdownOutput, "output", "o", "", "write to this file instead of stdout")

	rootCmd.AddCommand(parseCmd, markdownCmd, clipCmd)
}
