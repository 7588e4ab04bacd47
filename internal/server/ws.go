package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/TheAdaptoid/Altron-Core/internal/agent"
	"github.com/TheAdaptoid/Altron-Core/internal/logger"
	"github.com/TheAdaptoid/Altron-Core/internal/thread"

	"github.com/gorilla/websocket"
)

// ConversePacket is the single frame a client sends to start a turn. An
// empty ThreadID asks the agent to create a fresh thread.
type ConversePacket struct {
	ThreadID string         `json:"thread_id"`
	Message  thread.Message `json:"message"`
}

// handleConverse runs one conversational turn per websocket connection:
// read a ConversePacket, stream the invocation's events back as JSON text
// frames, then close. A failed send aborts the invocation so the backend
// stream is not consumed for a client that is gone.
func (s *Server) handleConverse(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	var packet ConversePacket
	if err := conn.ReadJSON(&packet); err != nil {
		slog.Warn("Converse packet read failed", "error", err)
		return
	}
	if packet.Message.Role == "" {
		packet.Message.Role = thread.RoleUser
	}

	ctx := logger.WithThreadID(r.Context(), packet.ThreadID)
	emit := func(ev agent.Event) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		conn.SetWriteDeadline(time.Now().Add(s.writeTTL))
		return conn.WriteMessage(websocket.TextMessage, payload)
	}

	th, err := s.agent.Invoke(ctx, packet.ThreadID, packet.Message, emit)
	if err != nil {
		slog.Warn("Invocation ended with error", "thread_id", packet.ThreadID, "error", err)
		return
	}
	slog.Info("Conversation turn completed", "thread_id", th.ID, "messages", len(th.Messages))

	conn.SetWriteDeadline(time.Now().Add(s.writeTTL))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
