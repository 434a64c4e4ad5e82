package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Print the certificate identifier of a PDF or image as JSON",
	Example: `  certid extract certificate.pdf
  certid extract scan.png --issuer NPTEL
  certid extract certificate.pdf --no-llm`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("issuer", "", "Issuer hint passed to the LLM enrichment prompt")
	extractCmd.Flags().Bool("no-llm", false, "Skip LLM enrichment")
}

func runExtract(cmd *cobra.Command, args []string) error {
	issuer, _ := cmd.Flags().GetString("issuer")
	noLLM, _ := cmd.Flags().GetBool("no-llm")

	s, err := newSession(cmd, !noLLM)
	if err != nil {
		return err
	}
	doc, err := readDocument(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := s.pipeline.CertificateID.ExtractCertificateID(ctx, doc, issuer)
	if err != nil {
		return err
	}
	s.logger.Debug("certificate_id_extracted", "file", doc.Filename, "status", result.Status)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
