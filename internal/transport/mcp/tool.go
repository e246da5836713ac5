package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	protoserver "github.com/viant/mcp-protocol/server"
	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/academic"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/esg"
)

//go:embed tools/search_esg.md
var descSearchESG string

//go:embed tools/search_academic.md
var descSearchAcademic string

func registerTools(registry *protoserver.Registry, h *Handler) error {
	if err := protoserver.RegisterTool[*SearchESGInput, *SearchESGOutput](registry, "search_ESG_tool", descSearchESG, func(ctx context.Context, in *SearchESGInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.searchESG(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	if err := protoserver.RegisterTool[*SearchAcademicInput, *SearchAcademicOutput](registry, "search_academic_db", descSearchAcademic, func(ctx context.Context, in *SearchAcademicInput) (*schema.CallToolResult, *jsonrpc.Error) {
		out, err := h.searchAcademic(ctx, in)
		if err != nil {
			return buildErrorResult(err.Error())
		}
		return buildSuccessResult(out)
	}); err != nil {
		return err
	}

	return nil
}

func buildErrorResult(message string) (*schema.CallToolResult, *jsonrpc.Error) {
	return nil, jsonrpc.NewError(jsonrpc.InvalidParams, message, nil)
}

func buildSuccessResult(payload any) (*schema.CallToolResult, *jsonrpc.Error) {
	b, _ := json.Marshal(payload)
	return &schema.CallToolResult{
		Content: []schema.CallToolResultContentElem{
			schema.TextContent{Type: "text", Text: string(b)},
		},
		StructuredContent: map[string]any{"result": payload},
	}, nil
}

func (h *Handler) searchESG(ctx context.Context, in *SearchESGInput) (*SearchESGOutput, error) {
	if h == nil || h.esg == nil {
		return nil, fmt.Errorf("mcp: esg service unavailable")
	}
	if in == nil {
		in = &SearchESGInput{}
	}
	if in.Query == "" {
		return nil, fmt.Errorf("mcp: missing query")
	}
	passages, err := h.esg.Search(ctx, esg.Request{Query: in.Query, TopK: in.TopK, DocIDs: in.DocIDs})
	if err != nil {
		return nil, err
	}
	result, err := esg.Serialize(passages)
	if err != nil {
		return nil, err
	}
	if h.log != nil {
		h.log.Debug("mcp tool served", zap.String("tool", "search_ESG_tool"), zap.Int("passages", len(passages)))
	}
	return &SearchESGOutput{Result: result}, nil
}

func (h *Handler) searchAcademic(ctx context.Context, in *SearchAcademicInput) (*SearchAcademicOutput, error) {
	if h == nil || h.academic == nil {
		return nil, fmt.Errorf("mcp: academic service unavailable")
	}
	if in == nil {
		in = &SearchAcademicInput{}
	}
	if in.Query == "" {
		return nil, fmt.Errorf("mcp: missing query")
	}
	passages, err := h.academic.Search(ctx, academic.Request{Query: in.Query, TopK: in.TopK})
	if err != nil {
		return nil, err
	}
	if h.log != nil {
		h.log.Debug("mcp tool served", zap.String("tool", "search_academic_db"), zap.Int("passages", len(passages)))
	}
	return &SearchAcademicOutput{Results: passages}, nil
}
