package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/forPelevin/manimgen/internal/metrics"
	"github.com/forPelevin/manimgen/internal/types"
)

const (
	requestReadTimeout = 30 * time.Second
	writeTimeout       = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is one frame on /ws/generate. The client sends a GenerationRequest,
// the server answers with "stage" frames followed by one "result" frame.
type Message struct {
	Type     string       `json:"type"`
	Event    *types.Event `json:"event,omitempty"`
	Response *APIResponse `json:"response,omitempty"`
	Status   int          `json:"status,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func (s *Server) generateWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	metrics.IncWSConnections()
	defer metrics.DecWSConnections()

	var req types.GenerationRequest
	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		s.write(conn, Message{Type: "error", Status: http.StatusBadRequest, Error: "invalid request: " + err.Error()})
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	// Progress frames are best effort; a dropped client never stops the run.
	res, err := s.runner.Run(context.WithoutCancel(c.Request.Context()), req, func(e types.Event) {
		s.write(conn, Message{Type: "stage", Event: &e})
	})
	resp := s.response(res, err)
	s.write(conn, Message{Type: "result", Status: statusFor(err), Response: &resp})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

func (s *Server) write(conn *websocket.Conn, m Message) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(m); err != nil {
		s.log.Debug().Err(err).Str("type", m.Type).Msg("websocket write failed")
	}
}
