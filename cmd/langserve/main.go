package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/IvoRacious/TianGong-AI-LangServe/internal/config"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/domain"
	logpkg "github.com/IvoRacious/TianGong-AI-LangServe/internal/logger"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/metrics"
	journalsrepo "github.com/IvoRacious/TianGong-AI-LangServe/internal/repository/journals"
	reportsrepo "github.com/IvoRacious/TianGong-AI-LangServe/internal/repository/reports"
	chiTransport "github.com/IvoRacious/TianGong-AI-LangServe/internal/transport/chi"
	mcpTransport "github.com/IvoRacious/TianGong-AI-LangServe/internal/transport/mcp"
	openaiEmb "github.com/IvoRacious/TianGong-AI-LangServe/internal/transport/openai"
	pineconeIdx "github.com/IvoRacious/TianGong-AI-LangServe/internal/transport/pinecone"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/transport/xata"
	academicuc "github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/academic"
	esguc "github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/esg"
	healthuc "github.com/IvoRacious/TianGong-AI-LangServe/internal/usecase/health"
	"github.com/IvoRacious/TianGong-AI-LangServe/internal/version"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting langserve API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("pinecone_index", cfg.Pinecone.Index),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()

	// Academic metadata lives in Postgres.
	kb, err := sql.Open("postgres", cfg.KB.DSN)
	if err != nil {
		logger.Fatal("Failed to open knowledge base", zap.Error(err))
	}
	defer func() { _ = kb.Close() }()

	if err := kb.PingContext(ctx); err != nil {
		logger.Fatal("Knowledge base not ready", zap.Error(err))
	}
	logger.Info("Connected to knowledge base")

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.EmbeddingModel,
		Logger:  logger,
	})

	index, err := pineconeIdx.NewIndex(&pineconeIdx.Config{
		APIKey:      cfg.Pinecone.APIKey,
		IndexName:   cfg.Pinecone.Index,
		Environment: cfg.Pinecone.Environment,
		Project:     cfg.Pinecone.Project,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Failed to create vector index client", zap.Error(err))
	}

	xataClient := xata.NewClient(&xata.Config{
		APIKey: cfg.Xata.APIKey,
		DBURL:  cfg.Xata.DBURL,
		Logger: logger,
	})

	reports := reportsrepo.New(xataClient, cfg.Xata.Table)
	journals := journalsrepo.New(kb, cfg.KB.Table)

	esgSvc := esguc.New(embedder, index, reports, cfg.Pinecone.ESGNamespace)
	academicSvc := academicuc.New(embedder, index, journals, cfg.Pinecone.SciNamespace)
	healthSvc := healthuc.New(journals, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(esgSvc, academicSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Optional MCP tool server on its own listener.
	var mcpSrv *http.Server
	if cfg.MCP.Addr != "" {
		mcpSrv, err = mcpTransport.NewServer(ctx, cfg.MCP.Addr, esgSvc, academicSvc, logger)
		if err != nil {
			logger.Fatal("Failed to create MCP server", zap.Error(err))
		}
		go func() {
			logger.Info("Starting MCP server", zap.String("addr", cfg.MCP.Addr))
			if err := mcpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("MCP server error", zap.Error(err))
			}
		}()
	}

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if mcpSrv != nil {
		if err := mcpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during MCP shutdown", zap.Error(err))
		}
	}

	logger.Info("Server stopped gracefully")
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
