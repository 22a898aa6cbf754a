package ws

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deviceos/pkgmap/internal/domain/uidmap"
	"github.com/deviceos/pkgmap/internal/infrastructure/logging"
	"github.com/deviceos/pkgmap/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin filtering is the proxy's job
	},
}

// Handler streams uid map change events to WebSocket clients. Each
// connection is one tracker subscription; its lifecycle exercises the
// subscribe/revoke/prune path end to end.
type Handler struct {
	tracker *uidmap.Tracker
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(tracker *uidmap.Tracker, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		tracker: tracker,
		logger:  logger,
		metrics: metrics,
	}
}

// Event is one change-event frame sent to clients.
type Event struct {
	Type        string `json:"type"` // "replace", "upsert", "remove"
	TimestampNs int64  `json:"timestamp_ns"`
	PackageName string `json:"package_name,omitempty"`
	Uid         int32  `json:"uid,omitempty"`
	VersionCode int64  `json:"version_code,omitempty"`
}

// connListener forwards tracker events into a buffered channel. A slow
// client loses frames instead of stalling the tracker's broadcast pass; a
// client that needs lossless history should drain instead.
type connListener struct {
	events  chan Event
	metrics *monitoring.Metrics
}

func (l *connListener) OnReplace(timestampNs int64) {
	l.push(Event{Type: "replace", TimestampNs: timestampNs})
}

func (l *connListener) OnUpsert(timestampNs int64, packageName string, uid int32, versionCode int64) {
	l.push(Event{
		Type:        "upsert",
		TimestampNs: timestampNs,
		PackageName: packageName,
		Uid:         uid,
		VersionCode: versionCode,
	})
}

func (l *connListener) OnRemove(timestampNs int64, packageName string, uid int32) {
	l.push(Event{
		Type:        "remove",
		TimestampNs: timestampNs,
		PackageName: packageName,
		Uid:         uid,
	})
}

func (l *connListener) push(ev Event) {
	select {
	case l.events <- ev:
		l.metrics.RecordWSEvent(ev.Type, "queued")
	default:
		l.metrics.RecordWSEvent(ev.Type, "dropped")
	}
}

// HandleConnection upgrades the request and streams events until the
// client disconnects.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	listener := &connListener{
		events:  make(chan Event, 64),
		metrics: h.metrics,
	}
	sub := h.tracker.Subscribe(listener)
	defer h.tracker.Unsubscribe(sub)

	// Reader exists only to observe the close; clients send nothing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-listener.events:
			frame, err := sonic.Marshal(ev)
			if err != nil {
				h.logger.Error("encode event frame", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
