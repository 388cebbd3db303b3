package server

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeusync/arbor/internal/core/observability/log"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadLimit = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is the envelope used on /ws in both directions. Clients send
// "generate" or "forest" with a request; the server answers with
// "result", "forest" or "error" and echoes the client's id.
type Message struct {
	Type    string           `json:"type"`
	ID      string           `json:"id,omitempty"`
	Request *GenerateRequest `json:"request,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", log.Error(err))
		return
	}
	conn.SetReadLimit(wsReadLimit)

	s.connWG.Add(1)
	s.trackConn(conn)
	defer func() {
		s.untrackConn(conn)
		_ = conn.Close()
		s.connWG.Done()
	}()

	ctx := r.Context()
	logger := s.logger.WithContext(ctx)
	logger.Info("WebSocket client connected", log.String("remote", r.RemoteAddr))

	for {
		var msg Message
		if err = conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				!errors.Is(err, net.ErrClosed) {
				logger.Debug("WebSocket read ended", log.Error(err))
			}
			logger.Info("WebSocket client disconnected")
			return
		}

		reply := s.dispatch(r, msg)
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err = conn.WriteJSON(reply); err != nil {
			logger.Warn("WebSocket write failed", log.Error(err))
			return
		}
	}
}

func (s *Server) dispatch(r *http.Request, msg Message) Message {
	reply := Message{ID: msg.ID}
	if msg.Request == nil {
		reply.Type = "error"
		reply.Error = ErrInvalidRequest.Error() + ": missing request"
		return reply
	}

	var (
		result any
		err    error
	)
	switch msg.Type {
	case "generate":
		result, err = s.generate(r.Context(), *msg.Request)
		reply.Type = "result"
	case "forest":
		result, err = s.forest(r.Context(), *msg.Request)
		reply.Type = "forest"
	default:
		err = ErrInvalidRequest
	}
	if err != nil {
		reply.Type = "error"
		reply.Error = err.Error()
		return reply
	}
	reply.Result = result
	return reply
}
