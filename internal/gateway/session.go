package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatpilot/internal/client"
	"chatpilot/internal/engine"
	"chatpilot/internal/history"
	"chatpilot/internal/model"
	"chatpilot/internal/pathpolicy"
	"chatpilot/internal/workspace"
)

// Session is one WebSocket connection. The session itself is the engine's
// workspace view: file operations hit the shared root, confirmation and
// diff approval round-trip over the socket.
type Session struct {
	ID      string
	conn    *websocket.Conn
	gateway *Gateway
	engine  *engine.Engine
	local   *workspace.Local

	writeMu sync.Mutex
	// turnMu serializes turns within the session: one action completes or
	// fails before the next turn's processing begins.
	turnMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan bool
	closed    bool
}

func newSession(id string, conn *websocket.Conn, g *Gateway) *Session {
	s := &Session{
		ID:      id,
		conn:    conn,
		gateway: g,
		local:   workspace.NewLocal(g.root, nil, nil),
		pending: make(map[string]chan bool),
	}
	s.engine = g.newEngine(s)
	return s
}

// run is the session read loop. It returns when the connection drops.
func (s *Session) run(ctx context.Context) {
	defer s.drainPending()

	for {
		var env Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			return
		}

		switch env.Type {
		case TypeMessage:
			// Handled off the read loop so confirm_response envelopes can
			// still be read while a turn waits for approval.
			go s.handleMessage(ctx, env.Content)

		case TypeFileUpload:
			s.handleUpload(env.Filename, env.Content)

		case TypeConfirmResponse:
			s.resolveConfirm(env.ID, env.Accepted)

		default:
			s.send(Envelope{Type: TypeError, Message: fmt.Sprintf("unknown envelope type %q", env.Type)})
		}
	}
}

func (s *Session) handleMessage(ctx context.Context, userText string) {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	userText = s.engine.SanitizeInput(userText)

	messages := s.contextMessages(ctx)
	messages = append(messages, client.Message{Role: "user", Content: userText})

	modelText, err := s.gateway.completer.Complete(ctx, messages)
	if err != nil {
		s.gateway.log.Warn("model request failed",
			zap.String("session_id", s.ID), zap.Error(err))
		s.send(Envelope{Type: TypeError, Message: "model request failed: " + err.Error()})
		return
	}

	// Detection runs only on the finalized response.
	result := s.engine.ProcessTurn(ctx, model.RawTurn{UserText: userText, ModelText: modelText})

	for _, chunk := range chunks(result.DisplayText, responseChunkSize) {
		s.send(Envelope{Type: TypeResponseChunk, Content: chunk})
	}
	s.send(Envelope{Type: TypeResponseEnd, TurnID: result.TurnID})

	if s.gateway.store != nil {
		turn := history.Turn{
			SessionID:   s.ID,
			UserText:    userText,
			DisplayText: result.DisplayText,
		}
		if result.Action != nil {
			turn.ActionKind = string(result.Action.Kind)
			turn.Outcome = string(result.Result.Outcome)
		}
		if err := s.gateway.store.Append(ctx, turn); err != nil {
			s.gateway.log.Warn("history append failed", zap.Error(err))
		}
	}
}

func (s *Session) contextMessages(ctx context.Context) []client.Message {
	messages := []client.Message{{
		Role: "system",
		Content: "You are a coding assistant working inside the user's workspace. " +
			"When asked to create or change a file, emit a fenced json block of the form " +
			`{"action":"create_file","params":{"path":...,"content":...}}.`,
	}}
	if s.gateway.store == nil {
		return messages
	}
	turns, err := s.gateway.store.Recent(ctx, s.ID, 20)
	if err != nil {
		s.gateway.log.Warn("history lookup failed", zap.Error(err))
		return messages
	}
	for _, t := range turns {
		messages = append(messages,
			client.Message{Role: "user", Content: t.UserText},
			client.Message{Role: "assistant", Content: t.DisplayText})
	}
	return messages
}

func (s *Session) handleUpload(filename, content string) {
	normalized, err := pathpolicy.Normalize(filename, s.gateway.root)
	if err != nil {
		s.send(Envelope{Type: TypeError, Message: "upload rejected: " + err.Error()})
		return
	}
	if err := s.local.WriteFile(normalized, content); err != nil {
		s.send(Envelope{Type: TypeError, Message: "upload failed: " + err.Error()})
		return
	}
	s.send(Envelope{Type: TypeUploadOK, Path: normalized})
}

// --- workspace.Workspace ---

func (s *Session) ReadFile(path string) (string, error) { return s.local.ReadFile(path) }
func (s *Session) WriteFile(path, content string) error { return s.local.WriteFile(path, content) }
func (s *Session) Exists(path string) bool              { return s.local.Exists(path) }
func (s *Session) OpenDocument(path string) error       { return nil }

func (s *Session) RunCommand(ctx context.Context, command string) (string, error) {
	return s.local.RunCommand(ctx, command)
}

// Confirm sends a confirm_request and blocks until the matching
// confirm_response arrives. Session close resolves as a denial.
func (s *Session) Confirm(prompt string) (bool, error) {
	id := uuid.NewString()
	ch := make(chan bool, 1)

	s.pendingMu.Lock()
	if s.closed {
		s.pendingMu.Unlock()
		return false, nil
	}
	s.pending[id] = ch
	s.pendingMu.Unlock()

	s.send(Envelope{Type: TypeConfirmRequest, ID: id, Prompt: prompt})

	accepted, ok := <-ch
	if !ok {
		return false, nil
	}
	return accepted, nil
}

func (s *Session) ShowDiff(path, before, after string) (bool, error) {
	diff := workspace.RenderDiff(path, before, after)
	return s.Confirm(diff + "\nApply these changes to " + path + "?")
}

func (s *Session) resolveConfirm(id string, accepted bool) {
	s.pendingMu.Lock()
	ch, ok := s.pending[id]
	delete(s.pending, id)
	s.pendingMu.Unlock()
	if ok {
		ch <- accepted
		close(ch)
	}
}

// drainPending denies every outstanding confirmation when the connection
// drops, so suspended turns cancel instead of hanging.
func (s *Session) drainPending() {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.closed = true
	for id, ch := range s.pending {
		delete(s.pending, id)
		close(ch)
	}
}

func (s *Session) send(env Envelope) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteJSON(env); err != nil {
		s.gateway.log.Debug("websocket write failed",
			zap.String("session_id", s.ID), zap.Error(err))
	}
}

func chunks(s string, size int) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	return append(out, s)
}
