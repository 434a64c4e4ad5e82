package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/micromerit/ai-service/internal/core/domain"
	"github.com/micromerit/ai-service/internal/core/usecase"
)

func callTool(t *testing.T, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	uc := usecase.NewCertificateIDUseCase(nil, usecase.CertificateIDOptions{})
	req := mcp.CallToolRequest{}
	req.Params.Name = "extract_certificate_id"
	req.Params.Arguments = args

	res, err := ExtractCertificateIDHandler(uc)(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestExtractCertificateIDToolFindsNumber(t *testing.T) {
	res := callTool(t, map[string]any{
		"text":        "Certificate No: ACTNAADO2008500-001904",
		"issuer_name": "NPTEL",
	})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var got domain.ExtractionResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if got.Status != domain.StatusFound || got.CertificateNumber == nil || *got.CertificateNumber != "ACTNAADO2008500-001904" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestExtractCertificateIDToolRejectsMissingText(t *testing.T) {
	for _, args := range []map[string]any{{}, {"text": "   "}} {
		res := callTool(t, args)
		if !res.IsError {
			t.Fatalf("expected tool error for args %v", args)
		}
	}
}

func TestNewServerRegistersTool(t *testing.T) {
	uc := usecase.NewCertificateIDUseCase(nil, usecase.CertificateIDOptions{})
	if s := NewServer(uc, "test"); s == nil {
		t.Fatalf("expected server")
	}
	if ExtractCertificateIDTool.Name != "extract_certificate_id" {
		t.Fatalf("unexpected tool name %q", ExtractCertificateIDTool.Name)
	}
}
