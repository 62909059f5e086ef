package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"energy_simulator/internal/action"
	"energy_simulator/internal/simulator"
	"energy_simulator/internal/store"
	"energy_simulator/internal/util"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler manages WebSocket connections and routes messages to the engine
// and the action executor.
type Handler struct {
	log      *util.Logger
	hub      *Hub
	engine   *simulator.Engine
	store    *store.Store
	executor *action.Executor
}

func NewHandler(hub *Hub, engine *simulator.Engine, s *store.Store, executor *action.Executor) *Handler {
	return &Handler{
		log:      util.NewLogger("ws"),
		hub:      hub,
		engine:   engine,
		store:    s,
		executor: executor,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.ERROR.Printf("upgrade: %v", err)
		return
	}

	client := newClient(h.hub, conn, r.RemoteAddr)

	h.hub.Register(client)
	go client.writePump()

	// Send initial device list and sim state
	h.sendDevicesLoaded(client)
	h.sendSimState(client)

	h.readPump(context.Background(), client)
}

func (h *Handler) readPump(ctx context.Context, c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WARN.Printf("read: %v", err)
			}
			return
		}

		h.handleMessage(ctx, c, msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *Client, msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.log.WARN.Printf("invalid message: %v", err)
		return
	}

	switch env.Type {
	case TypeSimStart:
		h.engine.Start()

	case TypeSimPause:
		h.engine.Pause()

	case TypeSimStep:
		h.engine.Step()

	case TypeSimSetInterval:
		var p SetIntervalPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			h.log.WARN.Printf("invalid %s payload: %v", env.Type, err)
			return
		}
		h.engine.SetInterval(time.Duration(p.IntervalSec * float64(time.Second)))

	case TypeDeviceAction:
		var a action.Action
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			h.log.WARN.Printf("invalid %s payload: %v", env.Type, err)
			h.sendActionError(c, a, err)
			return
		}
		if err := h.executor.Execute(ctx, a); err != nil {
			h.sendActionError(c, a, err)
		}

	default:
		h.log.WARN.Printf("unknown message type: %s", env.Type)
	}
}

func (h *Handler) sendActionError(c *Client, a action.Action, err error) {
	h.send(c, TypeActionError, ActionErrorPayload{
		DeviceID: a.DeviceID,
		Type:     a.Type,
		Error:    err.Error(),
	})
}

func (h *Handler) sendDevicesLoaded(c *Client) {
	h.send(c, TypeDevicesLoaded, DevicesLoaded(h.store.Devices("")))
}

func (h *Handler) sendSimState(c *Client) {
	h.send(c, TypeSimState, SimStateFromEngine(h.engine.State()))
}

func (h *Handler) send(c *Client, msgType string, payload any) {
	if err := c.Send(msgType, payload); err != nil {
		h.log.ERROR.Printf("creating %s message: %v", msgType, err)
	}
}
