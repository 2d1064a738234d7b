// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tkhuang/uno/internal/cache"
	"github.com/tkhuang/uno/internal/database"
	"github.com/tkhuang/uno/internal/game"
	"github.com/tkhuang/uno/internal/middleware"
	"github.com/tkhuang/uno/internal/models"
)

// Wire error codes sent back to the acting player. A rejected action is never
// broadcast and never changes room state.
const (
	ErrCodeInvalidJSON       = "invalid_json"
	ErrCodeMissingTypeOrRoom = "missing_type_or_roomId"
	ErrCodeMissingPlayerID   = "missing_playerId"
	ErrCodeInvalidPlayer     = "invalid_player"
	ErrCodeNotYourTurn       = "not_your_turn"
	ErrCodeCardNotInHand     = "card_not_in_hand"
	ErrCodeIllegalMove       = "illegal_move"
	ErrCodeGameNotStarted    = "game_not_started"
	ErrCodeNeedTwoPlayers    = "need_at_least_two_players"
	ErrCodeUnknownType       = "unknown_type"
)

// errorCode maps a game-engine rejection to its wire code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidPlayer):
		return ErrCodeInvalidPlayer
	case errors.Is(err, game.ErrNotYourTurn):
		return ErrCodeNotYourTurn
	case errors.Is(err, game.ErrCardNotInHand):
		return ErrCodeCardNotInHand
	case errors.Is(err, game.ErrGameNotStarted):
		return ErrCodeGameNotStarted
	case errors.Is(err, game.ErrNeedTwoPlayers):
		return ErrCodeNeedTwoPlayers
	default:
		return ErrCodeIllegalMove
	}
}

// GameServer owns the room registry shared by all game connections.
type GameServer struct {
	Logger *logrus.Logger
	Rooms  *game.RoomStore
}

func NewGameServer(logger *logrus.Logger) *GameServer {
	return &GameServer{
		Logger: logger,
		Rooms:  game.NewRoomStore(),
	}
}

// GameMessage is one inbound unit from a game client.
type GameMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId,omitempty"`
	Name     string `json:"name,omitempty"`

	Card        *models.Card      `json:"card,omitempty"`
	ChooseColor models.Color      `json:"chooseColor,omitempty"`
	Rules       *game.RulesUpdate `json:"rules,omitempty"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type joinedMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
	Rejoined bool   `json:"rejoined"`
}

type playerJoinedMessage struct {
	Type   string         `json:"type"`
	Player *models.Player `json:"player"`
}

type playerLeftMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type stateMessage struct {
	Type  string           `json:"type"`
	State game.PublicState `json:"state"`
}

type rulesUpdatedMessage struct {
	Type  string       `json:"type"`
	Rules models.Rules `json:"rules"`
}

type playedMessage struct {
	Type        string           `json:"type"`
	PlayerID    string           `json:"playerId"`
	Card        models.Card      `json:"card"`
	ChosenColor models.Color     `json:"chosenColor"`
	WinnerID    *string          `json:"winnerId"`
	State       game.PublicState `json:"state"`
}

type drewMessage struct {
	Type     string           `json:"type"`
	PlayerID string           `json:"playerId"`
	Drawn    int              `json:"drawn"`
	State    game.PublicState `json:"state"`
}

type saidUnoMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	Declared bool   `json:"declared"`
}

type unoPenaltyMessage struct {
	Type      string           `json:"type"`
	Offenders []string         `json:"offenders"`
	State     game.PublicState `json:"state"`
}

// GameWSHandler upgrades the connection and runs the per-connection read loop.
// One goroutine reads sequentially from the connection; a second pumps the
// outbound sink to the socket. All room mutations happen under the target
// room's lock inside the loop.
func GameWSHandler(logger *logrus.Logger, srv *GameServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("WebSocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "Internal server error during handler exit.")

		connID := uuid.New()
		middleware.LogWebSocketConnect(logger, middleware.EndpointGame, r.RemoteAddr, connID.String())

		out := make(chan []byte, 64)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writePump(ctx, cancel, c, out, logger)

		readErr := srv.readGameMessages(ctx, c, connID, out)
		middleware.LogWebSocketDisconnect(logger, middleware.EndpointGame, r.RemoteAddr, connID.String(), readErr)

		// Mark the player inactive in every room bound to this connection and
		// reclaim rooms left with no live members.
		srv.handleDisconnect(connID)
	}
}

// writePump drains the connection's outbound sink onto the socket. A write
// failure cancels the connection context so the read loop exits and the
// disconnect path runs.
func writePump(ctx context.Context, cancel context.CancelFunc, c *websocket.Conn, out <-chan []byte, logger *logrus.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-out:
			writeCtx, writeCancel := context.WithTimeout(ctx, 3*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, msg)
			writeCancel()
			if err != nil {
				logger.Debugf("WebSocket write failed, closing connection: %v", err)
				cancel()
				return
			}
		}
	}
}

// readGameMessages decodes one inbound unit at a time and routes it. Returns
// the error that ended the loop, nil for a normal closure.
func (s *GameServer) readGameMessages(ctx context.Context, c *websocket.Conn, connID uuid.UUID, out chan []byte) error {
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

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Logger.Debugf("invalid JSON from conn %s: %v", connID, err)
			s.sendError(out, ErrCodeInvalidJSON)
			continue
		}
		s.route(msg, connID, out)
	}
}

// route maps a message's declared type to exactly one room operation.
func (s *GameServer) route(msg GameMessage, connID uuid.UUID, out chan []byte) {
	if msg.Type == "" || msg.RoomID == "" {
		s.sendError(out, ErrCodeMissingTypeOrRoom)
		return
	}

	switch msg.Type {
	case "join":
		s.handleJoin(msg, connID, out)
	case "setRules":
		s.handleSetRules(msg, out)
	case "start":
		s.handleStart(msg, out)
	case "getState":
		s.handleGetState(msg, out)
	case "playCard":
		s.handlePlayCard(msg, out)
	case "drawCard":
		s.handleDrawCard(msg, out)
	case "sayUno":
		s.handleSayUno(msg, out)
	case "calloutUno":
		s.handleCalloutUno(msg, out)
	default:
		s.sendError(out, ErrCodeUnknownType)
	}
}

func (s *GameServer) handleJoin(msg GameMessage, connID uuid.UUID, out chan []byte) {
	if msg.PlayerID == "" {
		s.sendError(out, ErrCodeMissingPlayerID)
		return
	}
	room := s.Rooms.GetOrCreate(msg.RoomID)

	room.Mu.Lock()
	player, rejoined := room.Join(msg.PlayerID, msg.Name, connID, out)
	state := room.PublicState()
	others := make([]*models.Player, 0, len(room.Players))
	for _, p := range room.ConnectedPlayers() {
		if p.ID != player.ID {
			others = append(others, p)
		}
	}
	room.Mu.Unlock()

	s.Logger.Infof("player %s joined room %s (rejoined=%v)", player.ID, room.ID, rejoined)
	s.send(out, joinedMessage{Type: "joined", RoomID: room.ID, PlayerID: player.ID, Rejoined: rejoined})
	broadcastRaw(others, s.marshal(playerJoinedMessage{Type: "playerJoined", Player: player}))
	s.send(out, stateMessage{Type: "state", State: state})
	s.logAction(msg.RoomID, msg.PlayerID, msg.Type)
}

func (s *GameServer) handleSetRules(msg GameMessage, out chan []byte) {
	if msg.Rules == nil {
		s.sendError(out, ErrCodeInvalidJSON)
		return
	}
	room := s.Rooms.GetOrCreate(msg.RoomID)

	room.Mu.Lock()
	room.SetRules(*msg.Rules)
	rules := room.Rules
	recipients := room.ConnectedPlayers()
	room.Mu.Unlock()

	broadcastRaw(recipients, s.marshal(rulesUpdatedMessage{Type: "rulesUpdated", Rules: rules}))
	s.logAction(msg.RoomID, msg.PlayerID, msg.Type)
}

func (s *GameServer) handleStart(msg GameMessage, out chan []byte) {
	room := s.Rooms.GetOrCreate(msg.RoomID)

	room.Mu.Lock()
	if err := room.Start(); err != nil {
		room.Mu.Unlock()
		s.sendError(out, errorCode(err))
		return
	}
	state := room.PublicState()
	recipients := room.ConnectedPlayers()
	room.Mu.Unlock()

	s.Logger.Infof("room %s started a round with %d players", msg.RoomID, len(state.Players))
	broadcastRaw(recipients, s.marshal(stateMessage{Type: "state", State: state}))
	s.logAction(msg.RoomID, msg.PlayerID, msg.Type)
}

func (s *GameServer) handleGetState(msg GameMessage, out chan []byte) {
	room := s.Rooms.GetOrCreate(msg.RoomID)

	room.Mu.Lock()
	state := room.PublicState()
	room.Mu.Unlock()

	s.send(out, stateMessage{Type: "state", State: state})
}

func (s *GameServer) handlePlayCard(msg GameMessage, out chan []byte) {
	if msg.PlayerID == "" {
		s.sendError(out, ErrCodeMissingPlayerID)
		return
	}
	room := s.Rooms.GetOrCreate(msg.RoomID)
	var card models.Card
	if msg.Card != nil {
		card = *msg.Card
	}

	room.Mu.Lock()
	winnerID, err := room.PlayCard(msg.PlayerID, card, msg.ChooseColor)
	if err != nil {
		room.Mu.Unlock()
		s.sendError(out, errorCode(err))
		return
	}
	chosenColor := room.CurrentColor
	state := room.PublicState()
	recipients := room.ConnectedPlayers()
	var scores map[string]int
	if winnerID != "" {
		scores = make(map[string]int, len(room.Players))
		for _, p := range room.Players {
			scores[p.ID] = p.Score
		}
	}
	room.Mu.Unlock()

	ev := playedMessage{
		Type:        "played",
		PlayerID:    msg.PlayerID,
		Card:        card,
		ChosenColor: chosenColor,
		State:       state,
	}
	if winnerID != "" {
		ev.WinnerID = &winnerID
		s.Logger.Infof("round over in room %s, winner %s", msg.RoomID, winnerID)
		if database.Enabled() {
			go func() {
				if err := database.RecordRoundResult(context.Background(), msg.RoomID, winnerID, scores); err != nil {
					s.Logger.Warnf("failed to record round result for room %s: %v", msg.RoomID, err)
				}
			}()
		}
	}
	broadcastRaw(recipients, s.marshal(ev))
	s.logAction(msg.RoomID, msg.PlayerID, msg.Type)
}

func (s *GameServer) handleDrawCard(msg GameMessage, out chan []byte) {
	if msg.PlayerID == "" {
		s.sendError(out, ErrCodeMissingPlayerID)
		return
	}
	room := s.Rooms.GetOrCreate(msg.RoomID)

	room.Mu.Lock()
	drawn, err := room.DrawCard(msg.PlayerID)
	if err != nil {
		room.Mu.Unlock()
		s.sendError(out, errorCode(err))
		return
	}
	state := room.PublicState()
	recipients := room.ConnectedPlayers()
	room.Mu.Unlock()

	broadcastRaw(recipients, s.marshal(drewMessage{
		Type:     "drew",
		PlayerID: msg.PlayerID,
		Drawn:    drawn,
		State:    state,
	}))
	s.logAction(msg.RoomID, msg.PlayerID, msg.Type)
}

func (s *GameServer) handleSayUno(msg GameMessage, out chan []byte) {
	if msg.PlayerID == "" {
		s.sendError(out, ErrCodeMissingPlayerID)
		return
	}
	room := s.Rooms.GetOrCreate(msg.RoomID)

	room.Mu.Lock()
	declared, err := room.SayUno(msg.PlayerID)
	if err != nil {
		room.Mu.Unlock()
		s.sendError(out, errorCode(err))
		return
	}
	recipients := room.ConnectedPlayers()
	room.Mu.Unlock()

	broadcastRaw(recipients, s.marshal(saidUnoMessage{
		Type:     "saidUno",
		PlayerID: msg.PlayerID,
		Declared: declared,
	}))
	s.logAction(msg.RoomID, msg.PlayerID, msg.Type)
}

func (s *GameServer) handleCalloutUno(msg GameMessage, out chan []byte) {
	if msg.PlayerID == "" {
		s.sendError(out, ErrCodeMissingPlayerID)
		return
	}
	room := s.Rooms.GetOrCreate(msg.RoomID)

	room.Mu.Lock()
	offenders, err := room.CalloutUno(msg.PlayerID)
	if err != nil {
		room.Mu.Unlock()
		s.sendError(out, errorCode(err))
		return
	}
	state := room.PublicState()
	recipients := room.ConnectedPlayers()
	room.Mu.Unlock()

	ev := unoPenaltyMessage{Type: "unoPenalty", Offenders: offenders, State: state}
	if len(offenders) == 0 {
		// Nobody caught: the caller alone learns the call came up empty.
		s.send(out, ev)
		return
	}
	broadcastRaw(recipients, s.marshal(ev))
	s.logAction(msg.RoomID, msg.PlayerID, msg.Type)
}

// handleDisconnect marks every seat bound to connID inactive, announces the
// departure, and deletes rooms whose members are all gone.
func (s *GameServer) handleDisconnect(connID uuid.UUID) {
	for _, room := range s.Rooms.Rooms() {
		room.Mu.Lock()
		playerID, ok := room.MarkDisconnected(connID)
		if !ok {
			room.Mu.Unlock()
			continue
		}
		data := s.marshal(playerLeftMessage{Type: "playerLeft", PlayerID: playerID})
		recipients := room.ConnectedPlayers()
		room.Mu.Unlock()

		// The emptiness check and the removal must be one atomic step, or a
		// join holding a fresh reference could seat into a dropped room.
		if s.Rooms.DeleteIfEmpty(room.ID) {
			s.Logger.Infof("room %s reclaimed, all members disconnected", room.ID)
			continue
		}
		s.Logger.Infof("player %s disconnected from room %s", playerID, room.ID)
		broadcastRaw(recipients, data)
	}
}

// logAction pushes an accepted action onto the history queue when it is
// configured.
func (s *GameServer) logAction(roomID, playerID, actionType string) {
	if !cache.Enabled() {
		return
	}
	record := cache.RoomActionRecord{
		RoomID:     roomID,
		PlayerID:   playerID,
		ActionType: actionType,
		Timestamp:  time.Now().Unix(),
	}
	go func() {
		if err := cache.PublishRoomAction(context.Background(), record); err != nil {
			s.Logger.Debugf("failed to publish action record: %v", err)
		}
	}()
}

func (s *GameServer) marshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		s.Logger.Errorf("failed to marshal outbound message: %v", err)
		return nil
	}
	return b
}

// send delivers a message to a single connection's sink, best-effort.
func (s *GameServer) send(out chan []byte, v interface{}) {
	b := s.marshal(v)
	if b == nil {
		return
	}
	select {
	case out <- b:
	default:
		s.Logger.Debugf("outbound sink full, dropped message")
	}
}

func (s *GameServer) sendError(out chan []byte, code string) {
	s.send(out, errorMessage{Type: "error", Error: code})
}

// broadcastRaw delivers data to every recipient's sink. A failed send is
// swallowed; the player is reconciled on the next disconnect pass.
func broadcastRaw(recipients []*models.Player, data []byte) {
	if data == nil {
		return
	}
	for _, p := range recipients {
		p.Send(data)
	}
}
