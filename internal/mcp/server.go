package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"secrules/internal/config"
	"secrules/internal/demo"
	"secrules/internal/dispatch"
	"secrules/internal/logging"
	"secrules/internal/rules"
	"secrules/pkg/fileops"

	"github.com/mark3labs/mcp-go/server"
)

const serverName = "secrules"

const serverInstructions = "This server publishes a bilingual corpus of " +
	"twelve security rules (SEC-001 through SEC-012) for MCP server authors. " +
	"Use list_rules and get_rule to read writeups, rule:// resources for raw " +
	"markdown, and the explain_rule and audit_code prompts for guided use. " +
	"If demo tools are present they are intentionally vulnerable teaching " +
	"examples; never point them at data you care about."

// Server wires the rule corpus, the dispatch registry, and the protocol
// library together.
type Server struct {
	config   *config.Config
	logger   *logging.AppLogger
	corpus   *rules.Corpus
	registry *dispatch.Registry
	demo     *demo.Toolset

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer

	insecureErrors bool
}

// NewServer loads the corpus, builds the dispatch registry, and declares
// the full catalog. The returned server is ready to serve on either
// transport.
func NewServer(cfg *config.Config, logger *logging.AppLogger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = logging.NewServerLogger()
	}

	corpus, err := loadCorpus(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:         cfg,
		logger:         logger,
		corpus:         corpus,
		registry:       dispatch.NewRegistry(),
		insecureErrors: cfg.InsecureErrors,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		config.AppVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	if err := s.registerCorpusTools(); err != nil {
		return nil, fmt.Errorf("cannot register corpus tools: %w", err)
	}
	if err := s.registerResources(); err != nil {
		return nil, fmt.Errorf("cannot register resources: %w", err)
	}
	if err := s.registerPrompts(); err != nil {
		return nil, fmt.Errorf("cannot register prompts: %w", err)
	}

	if cfg.DemoTools {
		toolset, err := demo.NewToolset(demoWorkspaceDir(cfg), logger)
		if err != nil {
			return nil, fmt.Errorf("cannot prepare demo toolset: %w", err)
		}
		s.demo = toolset
		if err := s.registerDemoTools(); err != nil {
			return nil, fmt.Errorf("cannot register demo tools: %w", err)
		}
		logger.Warn("Demo tools enabled; this toolset is intentionally vulnerable",
			"workspace", toolset.BaseDir())
	}

	if s.insecureErrors {
		logger.Warn("Insecure error forwarding enabled; internal error detail will reach clients")
	}

	logger.Info("MCP server ready",
		"writeups", corpus.Len(),
		"locales", corpus.Locales(),
		"demoTools", cfg.DemoTools,
	)

	return s, nil
}

// loadCorpus prefers the materialized corpus in the storage directory and
// falls back to the embedded copy, so the server works before `secrules
// init` has ever run.
func loadCorpus(cfg *config.Config, logger *logging.AppLogger) (*rules.Corpus, error) {
	if cfg.StorageDir != "" {
		dir := cfg.CorpusDir()
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			corpus, err := rules.LoadDir(dir, logger)
			if err == nil {
				logger.Info("Corpus loaded from storage", "dir", dir)
				return corpus, nil
			}
			logger.Warn("Cannot load corpus from storage, using embedded copy", "dir", dir, "error", err)
		}
	}

	corpus, err := rules.Embedded(logger)
	if err != nil {
		return nil, fmt.Errorf("cannot load embedded corpus: %w", err)
	}
	logger.Info("Corpus loaded from embedded copy")
	return corpus, nil
}

// demoWorkspaceDir picks where the demo file tools nominally operate.
func demoWorkspaceDir(cfg *config.Config) string {
	if cfg.StorageDir != "" {
		return filepath.Join(fileops.ExpandPath(cfg.StorageDir), "demo-workspace")
	}
	return filepath.Join(os.TempDir(), "secrules-demo")
}

// Registry exposes the dispatch table, primarily for tests and the CLI's
// verify output.
func (s *Server) Registry() *dispatch.Registry {
	return s.registry
}

// Corpus returns the loaded rule corpus.
func (s *Server) Corpus() *rules.Corpus {
	return s.corpus
}

// Start serves on stdio and blocks until the client disconnects. Stdout is
// the protocol channel from here on.
func (s *Server) Start() error {
	s.logger.Info("Serving MCP over stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("stdio server failed: %w", err)
	}
	return nil
}

// StartHTTP serves the streamable HTTP transport on addr and blocks.
// Anyone who can reach the address can call every registered tool; the
// operator owns that exposure decision (see rule SEC-004).
func (s *Server) StartHTTP(addr string) error {
	s.httpServer = server.NewStreamableHTTPServer(s.mcpServer)
	s.logger.Info("Serving MCP over streamable HTTP", "addr", addr)
	if err := s.httpServer.Start(addr); err != nil {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP transport if one is running. The stdio transport
// stops when its pipes close and needs no help here.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("Shutting down MCP server")
	return s.httpServer.Shutdown(ctx)
}
