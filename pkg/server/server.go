// Package server provides the MCP server implementation for the Korean
// postcode tools.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/NERVsystems/postcodemcp/pkg/cache"
	"github.com/NERVsystems/postcodemcp/pkg/config"
	"github.com/NERVsystems/postcodemcp/pkg/juso"
	"github.com/NERVsystems/postcodemcp/pkg/resolve"
	"github.com/NERVsystems/postcodemcp/pkg/tools"
	"github.com/NERVsystems/postcodemcp/pkg/tools/prompts"
	"github.com/NERVsystems/postcodemcp/pkg/version"
)

const (
	// ServerName is the name of the MCP server
	ServerName = "postcode-mcp"
)

// Server encapsulates the MCP server with the postcode tools.
type Server struct {
	srv     *server.MCPServer
	cache   *cache.TTLCache
	service *resolve.AddressService
	logger  *slog.Logger
}

// NewServer builds the provider graph from cfg and registers every tool and
// prompt. The detail and English stages are wired only when configured.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("initializing postcode MCP server",
		"name", ServerName,
		"version", version.BuildVersion,
		"detail_enabled", cfg.DetailEnabled(),
		"english_enabled", cfg.EnglishEnabled())

	store := cache.NewTTLCache(cfg.CacheMaxSize, cfg.CacheTTL())
	limiter := juso.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	client := juso.NewClient(juso.ClientOptions{
		Timeout:   cfg.HTTPTimeout(),
		UserAgent: cfg.UserAgent,
		Limiter:   limiter,
		Logger:    logger,
	})

	search := juso.NewSearchProvider(client, store, juso.SearchOptions{
		APIURL:     cfg.SearchAPIURL,
		ConfirmKey: cfg.RoadKey,
		PageSize:   cfg.CountPerPage,
		FirstSort:  cfg.FirstSort,
		AddInfo:    cfg.AddInfo,
	}, logger)

	// Interfaces stay nil when a stage is not configured.
	var detail resolve.DetailSearcher
	if cfg.DetailEnabled() {
		detail = juso.NewDetailProvider(client, cfg.DetailAPIURL, cfg.DetailKey, logger)
	}
	var english resolve.EnglishSearcher
	if cfg.EnglishEnabled() {
		english = juso.NewEnglishProvider(client, store, juso.EnglishOptions{
			APIURL:     cfg.EngAPIURL,
			ConfirmKey: cfg.EngKey,
			PageSize:   cfg.CountPerPage,
			FirstSort:  cfg.FirstSort,
			AddInfo:    cfg.AddInfo,
		}, logger)
	}

	service := resolve.NewAddressService(resolve.NewResolver(search, logger), detail, english, logger)

	srv := server.NewMCPServer(
		ServerName,
		version.BuildVersion,
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	)

	registry := tools.NewRegistry(service, logger)
	registry.RegisterTools(srv)
	prompts.RegisterPostcodePrompts(srv)

	return &Server{
		srv:     srv,
		cache:   store,
		service: service,
		logger:  logger,
	}, nil
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.srv
}

// Service returns the address service the tools call into.
func (s *Server) Service() *resolve.AddressService {
	return s.service
}

// Run starts the MCP server using stdin/stdout for communication.
func (s *Server) Run() error {
	return server.ServeStdio(s.srv)
}

// RunSSE serves the MCP server over HTTP server-sent events on addr until ctx
// is cancelled.
func (s *Server) RunSSE(ctx context.Context, addr string) error {
	sse := server.NewSSEServer(s.srv)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving MCP over SSE", "addr", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down SSE server")
		if err := sse.Shutdown(context.Background()); err != nil {
			return err
		}
		s.logger.Info("cache entries at shutdown", "count", s.cache.Count())
		return nil
	}
}
