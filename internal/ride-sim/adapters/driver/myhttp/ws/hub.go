package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"ride-sim/internal/mylogger"
	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	websocketdto "ride-sim/internal/ride-sim/core/domain/websocket_dto"
	"ride-sim/internal/ride-sim/core/myerrors"
	"ride-sim/internal/ride-sim/core/ports/driven"
	"ride-sim/internal/ride-sim/core/ports/driver"
	"ride-sim/internal/ride-sim/core/services"

	"github.com/gorilla/websocket"
)

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the map client is served from anywhere during the demo
	CheckOrigin: func(*http.Request) bool { return true },
}

// ClientList is the set of connected map clients.
type ClientList map[*Client]bool

// Hub is the map screen as seen by the session controller: it renders the
// route and marker, shows the popup and relays location requests to every
// connected client. Inbound client messages are turned into controller calls.
type Hub struct {
	sync.RWMutex
	clients ClientList
	mylog   mylogger.Logger

	ctrlMu sync.RWMutex
	ctrl   driver.ISessionController

	stateMu sync.Mutex
	route   *websocketdto.RouteChangedMessage
	marker  *websocketdto.MarkerMessage
	popup   bool
}

var (
	_ driven.IDisplay         = (*Hub)(nil)
	_ driven.IPopup           = (*Hub)(nil)
	_ driven.ILocationManager = (*Hub)(nil)
)

func NewHub(log mylogger.Logger) *Hub {
	return &Hub{
		clients: make(ClientList),
		mylog:   log.WithGroup("ws"),
	}
}

func (h *Hub) SetController(ctrl driver.ISessionController) {
	h.ctrlMu.Lock()
	defer h.ctrlMu.Unlock()
	h.ctrl = ctrl
}

func (h *Hub) controller() driver.ISessionController {
	h.ctrlMu.RLock()
	defer h.ctrlMu.RUnlock()
	return h.ctrl
}

func (h *Hub) ShowRoute(_ context.Context, route model.Route) error {
	msg := websocketdto.RouteChangedMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeRouteChanged},
		Path:             route.Path,
		Center:           route.Center,
		DistanceMeters:   route.DistanceMeters,
		DurationSeconds:  route.DurationSeconds,
	}
	h.stateMu.Lock()
	h.route = &msg
	h.stateMu.Unlock()
	return h.broadcast(msg)
}

func (h *Hub) PlaceMarker(_ context.Context, marker model.Marker) error {
	msg := websocketdto.MarkerMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeMarker},
		Label:            marker.Label,
		Coordinate:       marker.Coordinate,
	}
	h.stateMu.Lock()
	h.marker = &msg
	h.stateMu.Unlock()
	return h.broadcast(msg)
}

func (h *Hub) Present(context.Context) error {
	h.stateMu.Lock()
	h.popup = true
	h.stateMu.Unlock()
	return h.broadcast(websocketdto.WebSocketMessage{Type: websocketdto.MessageTypePresentPopup})
}

func (h *Hub) RequestAuthorization(context.Context) error {
	return h.broadcast(websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeRequestAuthorization})
}

func (h *Hub) StartUpdating(context.Context) error {
	return h.broadcast(websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeStartUpdatingLocation})
}

// WsHandler upgrades the request and serves the client until it disconnects.
func (h *Hub) WsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.mylog.Action("ws_connect")

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade", err)
			return
		}

		client := NewClient(conn, h)
		h.AddClient(client)
		defer h.RemoveClient(client)
		log.Info("map client connected", "remote", r.RemoteAddr)

		go client.WriteMessage()
		client.ReadMessage(func(c *Client, payload []byte) {
			h.handleInbound(r.Context(), c, payload)
		})
		log.Info("map client disconnected", "remote", r.RemoteAddr)
	}
}

// AddClient registers c and queues the current screen state for it.
func (h *Hub) AddClient(c *Client) {
	h.Lock()
	defer h.Unlock()
	h.clients[c] = true

	for _, msg := range h.replay() {
		c.enqueue(msg)
	}
}

func (h *Hub) RemoveClient(c *Client) {
	h.Lock()
	defer h.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.RLock()
	defer h.RUnlock()
	return len(h.clients)
}

func (h *Hub) replay() [][]byte {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	var out [][]byte
	add := func(v any) {
		if b, err := json.Marshal(v); err == nil {
			out = append(out, b)
		}
	}
	if h.route != nil {
		add(h.route)
	}
	if h.marker != nil {
		add(h.marker)
	}
	if h.popup {
		add(websocketdto.WebSocketMessage{Type: websocketdto.MessageTypePresentPopup})
	}
	return out
}

func (h *Hub) broadcast(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var slow []*Client
	h.RLock()
	for c := range h.clients {
		if !c.enqueue(msg) {
			slow = append(slow, c)
		}
	}
	h.RUnlock()

	for _, c := range slow {
		h.mylog.Action("ws_broadcast").Warn("dropping slow map client")
		h.RemoveClient(c)
	}
	return nil
}

func (h *Hub) handleInbound(ctx context.Context, c *Client, payload []byte) {
	var in websocketdto.Inbound
	if err := json.Unmarshal(payload, &in); err != nil {
		h.sendError(c, "invalid_message", err)
		return
	}

	if in.Type == websocketdto.MessageTypePing {
		h.send(c, websocketdto.WebSocketMessage{Type: websocketdto.MessageTypePong})
		return
	}

	ctrl := h.controller()
	if ctrl == nil {
		h.sendError(c, "not_ready", errors.New("session controller not attached"))
		return
	}

	if in.Type == websocketdto.MessageTypeStart {
		h.stateMu.Lock()
		h.popup = false
		h.stateMu.Unlock()
	}

	cmd := messagebrokerdto.Command{
		Type:      in.Type,
		Status:    in.Status,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Error:     in.Error,
	}
	if err := services.HandleCommand(ctx, ctrl, cmd, time.Now()); err != nil {
		h.mylog.Action("ws_inbound").Warn("rejected client message", "type", in.Type, "error", err.Error())
		h.sendError(c, errorCode(err), err)
	}
}

func (h *Hub) send(c *Client, v any) {
	if b, err := json.Marshal(v); err == nil {
		c.enqueue(b)
	}
}

func (h *Hub) sendError(c *Client, code string, err error) {
	h.send(c, websocketdto.ErrorMessage{
		WebSocketMessage: websocketdto.WebSocketMessage{Type: websocketdto.MessageTypeError},
		ErrorCode:        code,
		ErrorMessage:     err.Error(),
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, myerrors.ErrInvalidPermission):
		return "invalid_permission"
	case errors.Is(err, myerrors.ErrInvalidCoordinate):
		return "invalid_coordinate"
	case errors.Is(err, myerrors.ErrUnknownCommand):
		return "unknown_type"
	case errors.Is(err, myerrors.ErrControllerStopped):
		return "controller_stopped"
	default:
		return "internal_error"
	}
}
