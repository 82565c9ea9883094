package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/glasspane/termbridge/internal/engine"
	"github.com/glasspane/termbridge/internal/monitoring"
	"github.com/glasspane/termbridge/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // the desktop shell connects from its own origin
	},
}

// clientMessage is one JSON message read from the client.
type clientMessage struct {
	Type string `json:"type"`

	// input
	Data string `json:"data,omitempty"`

	// key
	Key   string `json:"key,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Alt   bool   `json:"alt,omitempty"`
	Shift bool   `json:"shift,omitempty"`

	// resize (pixels)
	Width      int `json:"width,omitempty"`
	Height     int `json:"height,omitempty"`
	CellWidth  int `json:"cell_width,omitempty"`
	CellHeight int `json:"cell_height,omitempty"`
}

// Handler attaches WebSocket clients to terminal sessions.
type Handler struct {
	sessions *session.Manager
	log      *zap.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager, log *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		log:      log,
		metrics:  metrics,
	}
}

// HandleConnection upgrades the request and streams the session until
// the client disconnects. Disconnect detaches the client and disposes
// its engine; the session itself keeps running.
func (h *Handler) HandleConnection(c *gin.Context) {
	sessionID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	sink := NewRemoteSink(conn)
	eng, notifier, err := h.sessions.Attach(sessionID, sink, func(ev engine.KeyEvent) {
		action, _ := ev.Action()
		sink.sendControl(control{Type: "shortcut", Action: string(action)})
	})
	if err != nil {
		sink.sendControl(control{Type: "error", Message: err.Error()})
		return
	}
	defer h.sessions.Detach(sessionID)

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket read ended",
					zap.String("session_id", sessionID),
					zap.Error(err),
				)
			}
			return
		}

		switch msg.Type {
		case "input":
			if err := h.sessions.Write(sessionID, []byte(msg.Data)); err != nil {
				sink.sendControl(control{Type: "error", Message: err.Error()})
				return
			}
		case "key":
			ev := engine.KeyEvent{
				Key:   msg.Key,
				Ctrl:  msg.Ctrl,
				Alt:   msg.Alt,
				Shift: msg.Shift,
			}
			// Non-reserved combinations are ignored: the client sends
			// ordinary keystrokes as input messages.
			eng.InterceptKey(ev)
		case "resize":
			sink.SetGeometry(msg.Width, msg.Height, msg.CellWidth, msg.CellHeight)
			notifier.Notify()
		case "ping":
			sink.sendControl(control{Type: "pong"})
		default:
			sink.sendControl(control{Type: "error", Message: "unknown message type"})
		}
	}
}
