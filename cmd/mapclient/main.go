// Command mapclient is a terminal stand-in for the map screen. It connects
// to the simulator websocket, answers permission and location prompts and
// prints what the map would draw.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ride-sim/internal/mylogger"
	websocketdto "ride-sim/internal/ride-sim/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

type serverMessage struct {
	websocketdto.RouteChangedMessage
	Label        string          `json:"label"`
	Coordinate   json.RawMessage `json:"coordinate"`
	ErrorCode    string          `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
}

func main() {
	addr := flag.String("addr", "ws://localhost:3000/ws/map", "simulator websocket URL")
	lat := flag.Float64("lat", 12.9716, "device latitude")
	lon := flag.Float64("lon", 77.5946, "device longitude")
	permission := flag.String("permission", "authorizedWhenInUse", "permission answered to authorization requests")
	autoStart := flag.Bool("auto-start", true, "press start whenever the popup is shown")
	flag.Parse()

	appLogger := mylogger.New(os.Getenv("LOG_LEVEL")).WithGroup("mapclient")

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		appLogger.Error("Failed to connect to WebSocket server", err, "addr", *addr)
		os.Exit(1)
	}
	defer conn.Close()
	appLogger.Action("websocket_connected").Info("Connected to WebSocket server", "addr", *addr)

	sendJSON := func(msg websocketdto.Inbound) {
		bytes, _ := json.Marshal(msg)
		if err := conn.WriteMessage(websocket.TextMessage, bytes); err != nil {
			appLogger.Error("Error sending message", err)
			return
		}
		appLogger.Debug("Sent message", "message", string(bytes))
	}
	inbound := func(t string) websocketdto.Inbound {
		return websocketdto.Inbound{WebSocketMessage: websocketdto.WebSocketMessage{Type: t}}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					appLogger.Error("Error reading WebSocket message", err)
				}
				return
			}

			var msg serverMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				appLogger.Warn("unreadable message", "message", string(raw))
				continue
			}

			switch msg.Type {
			case websocketdto.MessageTypePresentPopup:
				appLogger.Info("popup shown")
				if *autoStart {
					sendJSON(inbound(websocketdto.MessageTypeStart))
				}
			case websocketdto.MessageTypeRequestAuthorization:
				m := inbound(websocketdto.MessageTypePermission)
				m.Status = *permission
				sendJSON(m)
			case websocketdto.MessageTypeStartUpdatingLocation:
				m := inbound(websocketdto.MessageTypeLocationUpdate)
				la, lo := *lat, *lon
				m.Latitude, m.Longitude = &la, &lo
				sendJSON(m)
			case websocketdto.MessageTypeRouteChanged:
				fmt.Printf("route: %d points, %.0f m, %.0f s, centre %.6f,%.6f\n",
					len(msg.Path), msg.DistanceMeters, msg.DurationSeconds, msg.Center.Latitude, msg.Center.Longitude)
			case websocketdto.MessageTypeMarker:
				fmt.Printf("%s at %s\n", msg.Label, strings.TrimSpace(string(msg.Coordinate)))
			case websocketdto.MessageTypeError:
				appLogger.Warn("server error", "code", msg.ErrorCode, "message", msg.ErrorMessage)
			default:
				appLogger.Debug("Received message", "type", msg.Type)
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-sig:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
