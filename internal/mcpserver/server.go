package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"constellar/internal/generator/models"
	"constellar/internal/generator/tools"
)

// ============================================================
// MCP Server
// ============================================================

const (
	Name    = "constellar"
	Version = "1.0.0"

	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Server отдаёт инструменты реестра по MCP. Результат вызова отдаётся как JSON {"elements": [...]}.
type Server struct {
	mcp      *server.MCPServer
	registry *tools.Registry
	logger   *zap.Logger
}

func New(registry *tools.Registry, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		mcp:      server.NewMCPServer(Name, Version, server.WithToolCapabilities(false)),
		registry: registry,
		logger:   logger.Named("mcp"),
	}
	for _, t := range registry.Tools() {
		s.mcp.AddTool(toolDefinition(t), s.handle(t.Name))
	}
	return s
}

// MCP отдаёт нижележащий сервер mcp-go.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve блокируется на выбранном транспорте. addr нужен только для sse.
func (s *Server) Serve(transport, addr string) error {
	switch transport {
	case TransportStdio, "":
		s.logger.Info("serving mcp over stdio", zap.Int("tools", len(s.registry.Tools())))
		return server.ServeStdio(s.mcp)
	case TransportSSE:
		s.logger.Info("serving mcp over sse", zap.String("addr", addr), zap.Int("tools", len(s.registry.Tools())))
		return server.NewSSEServer(s.mcp).Start(addr)
	default:
		return fmt.Errorf("unknown mcp transport %q", transport)
	}
}

func (s *Server) handle(name string) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()

		elements, err := s.registry.Run(name, tools.Args(req.GetArguments()))
		if err != nil {
			s.logger.Warn("tool failed", zap.String("tool", name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(struct {
			Elements []models.Element `json:"elements"`
		}{Elements: elements})
		if err != nil {
			return nil, fmt.Errorf("encode elements: %w", err)
		}

		s.logger.Debug("tool called",
			zap.String("tool", name),
			zap.Int("elements", len(elements)),
			zap.Duration("took", time.Since(start)),
		)
		return mcp.NewToolResultText(string(data)), nil
	}
}

// toolDefinition переводит параметры реестра в опции mcp-go.
func toolDefinition(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		if len(p.Enum) > 0 {
			props = append(props, mcp.Enum(p.Enum...))
		}

		switch p.Type {
		case tools.TypeNumber, tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		case tools.TypeArray:
			items := p.Items
			if items == "" {
				items = tools.TypeObject
			}
			props = append(props, mcp.Items(map[string]any{"type": string(items)}))
			opts = append(opts, mcp.WithArray(p.Name, props...))
		case tools.TypeObject:
			opts = append(opts, mcp.WithObject(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(t.Name, opts...)
}
