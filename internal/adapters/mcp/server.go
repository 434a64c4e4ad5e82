package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/micromerit/ai-service/internal/core/domain"
)

const ServerName = "micromerit-certid"

// TextIdentifierExtractor runs the certificate identifier pipeline over text
// that was already extracted by the caller.
type TextIdentifierExtractor interface {
	ExtractFromText(ctx context.Context, text, issuerHint string) domain.ExtractionResult
}

// ExtractCertificateIDTool describes the extract_certificate_id tool.
var ExtractCertificateIDTool = mcp.NewTool("extract_certificate_id",
	mcp.WithDescription("Find the certificate identifier (certificate number, credential id, "+
		"registration or serial number) in certificate text. Returns the chosen value with a "+
		"0-100 confidence, a status of found, needs_review or not_found, and the winning candidate "+
		"with its evidence window."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Plain text of the certificate, e.g. OCR output"),
	),
	mcp.WithString("issuer_name",
		mcp.Description("Optional issuer hint such as NPTEL or Coursera"),
	),
)

func NewServer(extractor TextIdentifierExtractor, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false))
	s.AddTool(ExtractCertificateIDTool, ExtractCertificateIDHandler(extractor))
	return s
}

// ExtractCertificateIDHandler reports bad arguments as tool errors so the
// client sees them; only encoding failures are protocol errors.
func ExtractCertificateIDHandler(extractor TextIdentifierExtractor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text is required"), nil
		}

		result := extractor.ExtractFromText(ctx, text, req.GetString("issuer_name", ""))
		body, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode extraction result: %w", err)
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
