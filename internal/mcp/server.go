// Package mcp exposes the action engine as typed MCP tools over stdio,
// so other agents can route model output through detection, validation,
// and policy gating.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"chatpilot/internal/audit"
	"chatpilot/internal/security"
)

// Config holds MCP server configuration.
type Config struct {
	Root         string
	PolicyPath   string
	AuditLogPath string
}

// Server wraps the MCP SDK server around the action engine.
type Server struct {
	mcpServer  *mcpsdk.Server
	gate       *security.Gate
	root       string
	auditLog   *audit.Log
	policyHash string
}

// New creates an MCP server with the policy loaded and tools registered.
func New(cfg Config) (*Server, error) {
	policy, policyHash, err := security.LoadPolicyWithHash(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load security policy: %w", err)
	}
	gate := security.NewGate(policy)

	var auditLog *audit.Log
	if cfg.AuditLogPath != "" {
		auditLog, err = audit.Open(cfg.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		gate.SetAuditLog(auditLog)
	}

	s := &Server{
		gate:       gate,
		root:       cfg.Root,
		auditLog:   auditLog,
		policyHash: policyHash,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "chatpilot",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close closes the audit log if configured.
func (s *Server) Close() error {
	if s.auditLog != nil {
		return s.auditLog.Close()
	}
	return nil
}

// registerTools adds the chatpilot tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "chatpilot_process",
		Description: "Run a finalized model response through action detection, validation, policy gating, and execution against the workspace. Confirmations are answered with the approve flag.",
	}, s.handleProcess)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "chatpilot_detect",
		Description: "Detect and validate the action in a model response without executing anything (dry-run).",
	}, s.handleDetect)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "chatpilot_check_command",
		Description: "Check whether a project command would be allowed by the active security policy.",
	}, s.handleCheckCommand)
}
