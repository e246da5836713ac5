package mcp

import (
	"context"

	"github.com/viant/jsonrpc/transport"
	protoclient "github.com/viant/mcp-protocol/client"
	protologger "github.com/viant/mcp-protocol/logger"
	protoserver "github.com/viant/mcp-protocol/server"
	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/academic"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/esg"
)

// Handler exposes the retrieval pipelines as MCP tools.
type Handler struct {
	*protoserver.DefaultHandler
	esg      *esg.Service
	academic *academic.Service
	log      *zap.Logger
}

func NewHandler(esgSvc *esg.Service, academicSvc *academic.Service, log *zap.Logger) protoserver.NewHandler {
	return func(_ context.Context, notifier transport.Notifier, logger protologger.Logger, clientOperation protoclient.Operations) (protoserver.Handler, error) {
		base := protoserver.NewDefaultHandler(notifier, logger, clientOperation)
		h := &Handler{
			DefaultHandler: base,
			esg:            esgSvc,
			academic:       academicSvc,
			log:            log,
		}
		if err := registerTools(base.Registry, h); err != nil {
			return nil, err
		}
		return h, nil
	}
}
