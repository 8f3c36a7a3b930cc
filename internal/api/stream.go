package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sailtimer/pkg/timer"
	"sailtimer/pkg/vmg"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = pingPeriod + 10*time.Second
)

// LiveState is one message on the WebSocket stream.
type LiveState struct {
	Timer timer.Snapshot `json:"timer"`
	VMG   VMGResponse    `json:"vmg"`
	Sail  vmg.SailData   `json:"sail"`
}

// Command is a client message. Timer names a timer action as accepted by
// POST /api/timer/{action}.
type Command struct {
	Timer string `json:"timer"`
}

// StreamHandler pushes LiveState to WebSocket clients on every change and
// accepts timer commands from them.
type StreamHandler struct {
	engine   *timer.Engine
	vmg      *VMGHandler
	timerH   *TimerHandler
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients int
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(e *timer.Engine, c *vmg.Calculator) *StreamHandler {
	return &StreamHandler{
		engine: e,
		vmg:    NewVMGHandler(c),
		timerH: NewTimerHandler(e),
		upgrader: websocket.Upgrader{
			// The API only listens on localhost; dashboards may be served from anywhere.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Clients returns the number of connected clients.
func (h *StreamHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

func (h *StreamHandler) state() LiveState {
	return LiveState{
		Timer: h.engine.Snapshot(),
		VMG:   h.vmg.response(),
		Sail:  h.vmg.calc.SailData(),
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients++
	slog.Debug("WebSocket client connected", "clients", h.clients)
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.clients--
		h.mu.Unlock()
	}()

	// Changes are coalesced: a slow client gets the latest state, not a backlog.
	dirty := make(chan struct{}, 1)
	notify := func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}
	stopTimer := h.engine.Listen(func(timer.Snapshot) { notify() })
	defer stopTimer()
	stopVMG := h.vmg.calc.ListenUpdates(func(vmg.Update) { notify() })
	defer stopVMG()

	done := make(chan struct{})
	go h.readLoop(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-dirty:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(h.state()); err != nil {
				slog.Debug("WebSocket write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("WebSocket read failed", "error", err)
			}
			return
		}
		if fn, ok := h.timerH.actions[cmd.Timer]; ok {
			fn()
		} else if cmd.Timer != "" {
			slog.Warn("WebSocket: unknown timer action", "action", cmd.Timer)
		}
	}
}
