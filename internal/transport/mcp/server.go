package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/viant/mcp-protocol/schema"
	mcpsrv "github.com/viant/mcp/server"
	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/academic"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/esg"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/version"
)

// NewServer builds an HTTP server that speaks streamable MCP on /mcp.
func NewServer(ctx context.Context, addr string, esgSvc *esg.Service, academicSvc *academic.Service, log *zap.Logger) (*http.Server, error) {
	server, err := mcpsrv.New(
		mcpsrv.WithImplementation(schema.Implementation{Name: "tiangong-langserve", Version: version.Version}),
		mcpsrv.WithNewHandler(NewHandler(esgSvc, academicSvc, log)),
		mcpsrv.WithEndpointAddress(addr),
		mcpsrv.WithStreamableURI("/mcp"),
	)
	if err != nil {
		return nil, err
	}

	server.UseStreamableHTTP(true)
	httpServer := server.HTTP(ctx, addr)
	httpServer.ReadHeaderTimeout = 10 * time.Second
	httpServer.ReadTimeout = 60 * time.Second
	httpServer.WriteTimeout = 60 * time.Second
	httpServer.IdleTimeout = 120 * time.Second
	return httpServer, nil
}
