package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var textCmd = &cobra.Command{
	Use:   "text [file]",
	Short: "Print the text extracted from a PDF or image",
	Args:  cobra.ExactArgs(1),
	RunE:  runText,
}

func init() {
	rootCmd.AddCommand(textCmd)
}

func runText(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	text, err := s.pipeline.Extractor.Extract(ctx, doc)
	if err != nil {
		return err
	}
	for _, warning := range text.Warnings {
		s.logger.Warn("text_extraction_warning", "file", doc.Filename, "warning", warning)
	}
	s.logger.Info("text_extracted", "file", doc.Filename, "method", text.Method, "pages", text.Pages)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text.Text)
	return err
}
