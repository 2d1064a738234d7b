// internal/handlers/relay_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tkhuang/uno/internal/middleware"
	"github.com/tkhuang/uno/internal/relay"
)

// DefaultRelayRoom receives clients that join without naming a room.
const DefaultRelayRoom = "default"

// RelayMessage is one inbound unit on the relay endpoint. The relay speaks
// the original action-based wire format and never inspects game semantics.
type RelayMessage struct {
	Action string          `json:"action"`
	Room   string          `json:"room,omitempty"`
	Player json.RawMessage `json:"player,omitempty"`
}

// RelayWSHandler runs the relay-only variant: join registers the connection
// in a room, play_card/draw_one/round_end are forwarded verbatim to the other
// members, and departure updates the room state.
func RelayWSHandler(logger *logrus.Logger, hub *relay.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warnf("relay accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		connID := uuid.New()
		middleware.LogWebSocketConnect(logger, middleware.EndpointRelay, r.RemoteAddr, connID.String())

		out := make(chan []byte, 64)
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writePump(ctx, cancel, c, out, logger)

		var clientID, roomName string
		readErr := readRelayMessages(ctx, c, hub, out, &clientID, &roomName, logger)
		middleware.LogWebSocketDisconnect(logger, middleware.EndpointRelay, r.RemoteAddr, connID.String(), readErr)

		if clientID != "" {
			hub.Leave(roomName, clientID)
		}
	}
}

func readRelayMessages(ctx context.Context, c *websocket.Conn, hub *relay.Hub, out chan []byte, clientID, roomName *string, logger *logrus.Logger) error {
	for {
		msgType, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg RelayMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debugf("relay: invalid JSON: %v", err)
			continue
		}

		switch msg.Action {
		case "join":
			var player struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(msg.Player, &player); err != nil || player.ID == "" {
				logger.Debugf("relay: join without player id")
				continue
			}
			*clientID = player.ID
			*roomName = msg.Room
			if *roomName == "" {
				*roomName = DefaultRelayRoom
			}
			logger.Infof("relay: player %s joined room %s", *clientID, *roomName)
			hub.Join(*roomName, &relay.Client{ID: player.ID, Info: msg.Player, Out: out})

		case "play_card", "draw_one", "round_end":
			if *clientID == "" {
				continue
			}
			hub.Forward(*roomName, *clientID, data)

		default:
			logger.Debugf("relay: ignoring unknown action %q", msg.Action)
		}
	}
}
