// Package gateway serves the chat protocol over WebSocket: inbound user
// messages and file uploads, outbound streamed responses and confirmation
// round-trips. Each connection is one session with its own engine over a
// session-bound workspace view.
package gateway

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatpilot/internal/client"
	"chatpilot/internal/engine"
	"chatpilot/internal/executor"
	"chatpilot/internal/history"
	"chatpilot/internal/security"
	"chatpilot/internal/workspace"
)

// Envelope is the wire format in both directions, discriminated by Type.
type Envelope struct {
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Content  string `json:"content,omitempty"`
	Filename string `json:"filename,omitempty"`
	Path     string `json:"path,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Accepted bool   `json:"accepted,omitempty"`
	TurnID   string `json:"turn_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Inbound envelope types.
const (
	TypeMessage         = "message"
	TypeFileUpload      = "file_upload"
	TypeConfirmResponse = "confirm_response"
)

// Outbound envelope types.
const (
	TypeResponseChunk  = "response_chunk"
	TypeResponseEnd    = "response_end"
	TypeConfirmRequest = "confirm_request"
	TypeUploadOK       = "upload_ok"
	TypeError          = "error"
)

const responseChunkSize = 512

// Completer produces a finished model response for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []client.Message) (string, error)
}

// Gateway accepts WebSocket sessions and runs turns through the engine.
type Gateway struct {
	root      string
	gate      *security.Gate
	completer Completer
	store     *history.Store
	analyzer  executor.Analyzer
	log       *zap.Logger
	upgrader  websocket.Upgrader

	mu       sync.RWMutex
	sessions map[string]*Session
}

// New creates a gateway. store may be nil to disable history; log may be
// nil for a no-op logger.
func New(root string, gate *security.Gate, completer Completer, store *history.Store, analyzer executor.Analyzer, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		root:      root,
		gate:      gate,
		completer: completer,
		store:     store,
		analyzer:  analyzer,
		log:       log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*Session),
	}
}

// Handler returns the HTTP handler that upgrades to the chat protocol.
func (g *Gateway) Handler() http.Handler {
	return http.HandlerFunc(g.serve)
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := newSession(uuid.NewString(), conn, g)
	g.mu.Lock()
	g.sessions[session.ID] = session
	g.mu.Unlock()

	g.log.Info("session opened", zap.String("session_id", session.ID))
	session.run(r.Context())

	g.mu.Lock()
	delete(g.sessions, session.ID)
	g.mu.Unlock()
	g.log.Info("session closed", zap.String("session_id", session.ID))
}

// SessionCount reports the number of live sessions.
func (g *Gateway) SessionCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

func (g *Gateway) newEngine(ws workspace.Workspace) *engine.Engine {
	return engine.New(ws, g.gate, g.analyzer, g.root, g.log)
}
