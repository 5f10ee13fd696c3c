package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/NERVsystems/postcodemcp/pkg/config"
	"github.com/NERVsystems/postcodemcp/pkg/server"
	"github.com/NERVsystems/postcodemcp/pkg/version"
)

const (
	transportStdio = "stdio"
	transportSSE   = "sse"

	// clientServerKey is the entry written under mcpServers.
	clientServerKey = "postcode"
)

var (
	showVersion    bool
	debug          bool
	envFile        string
	transport      string
	addr           string
	generateConfig string
)

func init() {
	flag.BoolVar(&showVersion, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&envFile, "env-file", "", "Load settings from this .env file (default ./.env if present)")
	flag.StringVar(&transport, "transport", transportStdio, "Transport to serve on: stdio or sse")
	flag.StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address for the sse transport")
	flag.StringVar(&generateConfig, "generate-config", "", "Generate a Claude Desktop Client config file at the specified path")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}

	// Generate Claude Desktop config if requested
	if generateConfig != "" {
		logger := newLogger(slog.LevelInfo)
		if err := generateClientConfig(generateConfig); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully generated Claude Desktop Client config", "path", generateConfig)
		return
	}

	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var paths []string
	if envFile != "" {
		paths = append(paths, envFile)
	}
	if err := config.LoadDotEnv(paths...); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logLevel, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if debug {
		logLevel = slog.LevelDebug
	}
	logger := newLogger(logLevel)

	logger.Info("starting Korean postcode MCP server",
		"version", version.BuildVersion,
		"transport", transport,
		"log_level", logLevel.String())

	srv, err := server.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	switch transport {
	case transportStdio:
		logger.Info("server initialized, waiting for requests")
		return srv.Run()
	case transportSSE:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.RunSSE(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
}

// newLogger writes text logs to stderr; stdout carries the stdio transport.
func newLogger(level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// validateConfigPath rejects empty paths, non-JSON files and parent
// directory traversal.
func validateConfigPath(outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return errors.New("config path is empty")
	}
	if !strings.EqualFold(filepath.Ext(outputPath), ".json") {
		return fmt.Errorf("config path %q must end in .json", outputPath)
	}
	if slices.Contains(strings.Split(filepath.ToSlash(outputPath), "/"), "..") {
		return fmt.Errorf("config path %q must not contain '..'", outputPath)
	}
	return nil
}

// generateClientConfig creates or updates a Claude Desktop Client config
// file, keeping any other entries already present.
func generateClientConfig(outputPath string) error {
	if err := validateConfigPath(outputPath); err != nil {
		return err
	}
	logger := slog.Default()

	execPath, err := os.Executable()
	if err != nil {
		execPath = os.Args[0]
	}
	absExecPath, err := filepath.Abs(execPath)
	if err != nil {
		absExecPath = execPath
	}

	entry := map[string]any{
		"command": absExecPath,
		"args":    []string{},
		"env": map[string]string{
			"JUSO_ROAD_KEY": "",
		},
	}

	config := make(map[string]any)
	if data, err := os.ReadFile(outputPath); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			logger.Warn("existing config is not valid JSON, will create new", "error", err)
			config = make(map[string]any)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read existing config: %w", err)
	}

	mcpServers, ok := config["mcpServers"].(map[string]any)
	if !ok {
		mcpServers = make(map[string]any)
		config["mcpServers"] = mcpServers
	}

	// Keep a key the user already filled in.
	if existing, ok := mcpServers[clientServerKey].(map[string]any); ok {
		if env, ok := existing["env"]; ok {
			entry["env"] = env
		}
	}
	mcpServers[clientServerKey] = entry

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	// The file may hold API keys.
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Chmod(outputPath, 0o600)
}
