package main

import (
	"go.uber.org/zap"

	"constellar/internal/common/config"
	"constellar/internal/common/logging"
	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/tools"
	"constellar/internal/mcpserver"
)

// ============================================================
// MCP Server
// ============================================================

// Логи идут в stderr: stdout занят протоколом при stdio.
func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.LogLevel, cfg.Environment)
	defer func() { _ = logger.Sync() }()

	theme, err := excalidraw.LoadTheme(cfg.ThemePath)
	if err != nil {
		logger.Fatal("load theme", zap.String("path", cfg.ThemePath), zap.Error(err))
	}

	srv := mcpserver.New(tools.NewRegistry(excalidraw.NewFactory(theme)), logger)
	if err := srv.Serve(cfg.MCPTransport, cfg.MCPAddr); err != nil {
		logger.Fatal("mcp server stopped", zap.String("transport", cfg.MCPTransport), zap.Error(err))
	}
}
