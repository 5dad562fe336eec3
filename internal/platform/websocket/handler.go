package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/viniciussiqueiradecampos/dash-medicina/internal/platform/eventbus"
)

// WebSocketHandler upgrades HTTP connections and routes client messages.
// Clients may publish on the bus topics that accept external publishers.
type WebSocketHandler struct {
	hub      *Hub
	bus      *eventbus.Bus
	upgrader gorillawebsocket.Upgrader
}

// NewWebSocketHandler returns a handler bound to hub and bus. Browser
// connections are accepted from allowedOrigins; "*" or an empty list allows
// any origin.
func NewWebSocketHandler(hub *Hub, bus *eventbus.Bus, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		bus: bus,
		upgrader: gorillawebsocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(set) == 0 {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (wsh *WebSocketHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wsh.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client with the
// topics listed in the "topics" query parameter and starts its pumps.
func (wsh *WebSocketHandler) HandleConnect(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(uuid.New().String())
	if q := c.QueryParam("topics"); q != "" {
		client.Topics = strings.Split(q, ",")
	}
	wsh.hub.Register(client)

	go wsh.writePump(client, ws)
	go wsh.readPump(client, ws)

	return nil
}

func (wsh *WebSocketHandler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		wsh.hub.Unregister(client)
		ws.Close()
	}()

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			wsh.reply(client, "", err)
			continue
		}
		if wsh.hub.ProcessMessage(client, msg) {
			continue
		}
		if msg.Action != ActionPublish {
			continue
		}
		if _, err := eventbus.PublishJSON(wsh.bus, msg.Topic, msg.Data); err != nil {
			wsh.reply(client, msg.Topic, err)
		}
	}
}

func (wsh *WebSocketHandler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			return
		}
	}
}

// reply queues an error event for client alone.
func (wsh *WebSocketHandler) reply(client *Client, topic string, err error) {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	evt, _ := json.Marshal(Event{Type: EventTypeError, Topic: topic, Timestamp: time.Now(), Data: data})
	wsh.hub.deliver(client, evt)
}
