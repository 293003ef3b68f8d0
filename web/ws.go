package web

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"babelroom/delivery"
	"babelroom/domain"
	"babelroom/errors"
)

// wsConn serializes writes. The batch pusher and the ack writer share one
// socket and gorilla allows a single concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// writeJSON encodes without HTML escaping so <, > and & survive intact.
func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return w.Close()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame is the wire envelope pushed to the browser. Exactly one field set:
// a batch of enriched messages, an ack for a send, or an error banner.
type Frame struct {
	Batch []delivery.Enriched `json:"batch,omitempty"`
	Ack   string              `json:"ack,omitempty"`
	Error string              `json:"error,omitempty"`
}

type inboundFrame struct {
	Content string `json:"content"`
}

// handleRoomStream is the live connection: it opens a delivery session for
// the viewer, streams enriched batches out, and accepts sends in. Closing the
// socket, in either direction, tears the whole session down.
func (s *Server) handleRoomStream(w http.ResponseWriter, r *http.Request) {
	viewer := viewerFrom(r)
	code := domain.NormalizeRoomCode(chi.URLParam(r, "code"))

	session, err := s.chatService.OpenSession(viewer, code)
	if err != nil {
		if goerrors.Is(err, errors.ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		s.log.Error("Session open failed", "room", code, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.chatService.CloseSession(session)
		s.log.Error("Websocket upgrade failed", "error", err)
		return
	}
	conn := &wsConn{conn: raw}

	// The session context governs the whole connection. Cancel on any exit
	// path so the delivery loop stops and late translations are discarded.
	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		s.chatService.CloseSession(session)
		_ = raw.Close()
	}()

	go func() {
		// The session loop owns the out channel and closes it when done.
		_ = session.Run(ctx)
	}()

	go s.writeLoop(conn, session)
	s.readLoop(ctx, conn, session, viewer)
}

// writeLoop forwards enriched batches to the socket until the session ends.
func (s *Server) writeLoop(conn *wsConn, session *delivery.Session) {
	for batch := range session.Events() {
		if err := conn.writeJSON(Frame{Batch: batch}); err != nil {
			s.log.Debug("Websocket write failed, dropping connection", "error", err)
			_ = conn.conn.Close()
			return
		}
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), deadline)
}

// readLoop accepts sends from the viewer. A failed append is reported on the
// same socket as an error frame so the sender knows the message did not go
// through.
func (s *Server) readLoop(ctx context.Context, conn *wsConn,
	session *delivery.Session, viewer domain.User) {
	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			_ = conn.writeJSON(Frame{Error: "malformed frame"})
			continue
		}

		id, err := s.chatService.PostMessage(ctx, domain.PostMessageCommand{
			Room:    session.Room(),
			Sender:  viewer.Email,
			Content: frame.Content,
		})
		if err != nil {
			_ = conn.writeJSON(Frame{Error: "failed to send"})
			continue
		}
		_ = conn.writeJSON(Frame{Ack: id.String()})
	}
}
