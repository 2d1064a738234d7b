// internal/handlers/game_ws_test.go
package handlers

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkhuang/uno/internal/game"
	"github.com/tkhuang/uno/internal/models"
)

func newTestServer() *GameServer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewGameServer(logger)
}

// recv pops the next message off a sink and decodes it. Fails the test when
// the sink is empty: the dispatcher delivers synchronously.
func recv(t *testing.T, out chan []byte) map[string]interface{} {
	t.Helper()
	select {
	case b := <-out:
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &m))
		return m
	default:
		t.Fatal("expected a message on the sink")
		return nil
	}
}

func drain(out chan []byte) {
	for {
		select {
		case <-out:
		default:
			return
		}
	}
}

// joinPlayer runs a join and drains the setup traffic.
func joinPlayer(t *testing.T, srv *GameServer, roomID, playerID string) (uuid.UUID, chan []byte) {
	t.Helper()
	connID := uuid.New()
	out := make(chan []byte, 16)
	srv.route(GameMessage{Type: "join", RoomID: roomID, PlayerID: playerID, Name: playerID}, connID, out)

	m := recv(t, out)
	require.Equal(t, "joined", m["type"])
	m = recv(t, out)
	require.Equal(t, "state", m["type"])
	return connID, out
}

func TestRouteProtocolErrors(t *testing.T) {
	srv := newTestServer()
	out := make(chan []byte, 16)
	connID := uuid.New()

	srv.route(GameMessage{Type: "join"}, connID, out)
	assert.Equal(t, ErrCodeMissingTypeOrRoom, recv(t, out)["error"])

	srv.route(GameMessage{RoomID: "r"}, connID, out)
	assert.Equal(t, ErrCodeMissingTypeOrRoom, recv(t, out)["error"])

	srv.route(GameMessage{Type: "join", RoomID: "r"}, connID, out)
	assert.Equal(t, ErrCodeMissingPlayerID, recv(t, out)["error"])

	srv.route(GameMessage{Type: "teleport", RoomID: "r"}, connID, out)
	assert.Equal(t, ErrCodeUnknownType, recv(t, out)["error"])
}

func TestJoinBroadcastsToOthers(t *testing.T) {
	srv := newTestServer()
	_, outA := joinPlayer(t, srv, "r1", "alice")

	_, outB := joinPlayer(t, srv, "r1", "bob")
	m := recv(t, outA)
	assert.Equal(t, "playerJoined", m["type"])
	player := m["player"].(map[string]interface{})
	assert.Equal(t, "bob", player["id"])

	select {
	case <-outB:
		t.Fatal("the joiner must not receive their own playerJoined broadcast")
	default:
	}
}

func TestStartRequiresTwoPlayersOnWire(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")

	srv.route(GameMessage{Type: "start", RoomID: "r1"}, connA, outA)
	assert.Equal(t, ErrCodeNeedTwoPlayers, recv(t, outA)["error"])

	_, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.route(GameMessage{Type: "start", RoomID: "r1"}, connA, outA)
	for _, out := range []chan []byte{outA, outB} {
		m := recv(t, out)
		require.Equal(t, "state", m["type"])
		state := m["state"].(map[string]interface{})
		assert.Equal(t, true, state["started"])
	}
}

func TestGetStateRepliesToRequesterOnly(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	_, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.route(GameMessage{Type: "getState", RoomID: "r1"}, connA, outA)
	assert.Equal(t, "state", recv(t, outA)["type"])
	select {
	case <-outB:
		t.Fatal("getState must not broadcast")
	default:
	}
}

func TestSetRulesBroadcasts(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	_, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	off := false
	srv.route(GameMessage{Type: "setRules", RoomID: "r1", Rules: &game.RulesUpdate{StackingPlus: &off}}, connA, outA)
	for _, out := range []chan []byte{outA, outB} {
		m := recv(t, out)
		require.Equal(t, "rulesUpdated", m["type"])
		rules := m["rules"].(map[string]interface{})
		assert.Equal(t, false, rules["stackingPlus"])
		assert.Equal(t, true, rules["skipChain"])
	}
}

func TestSetRulesRequiresRulesObject(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	_, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.route(GameMessage{Type: "setRules", RoomID: "r1"}, connA, outA)
	assert.Equal(t, ErrCodeInvalidJSON, recv(t, outA)["error"])
	select {
	case <-outB:
		t.Fatal("a rejected setRules must not be broadcast")
	default:
	}
}

// TestStackedPenaltyScenario drives the wire-level flow: A plays a legal
// drawTwo with stacking on, B absorbs the penalty with a draw.
func TestStackedPenaltyScenario(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	connB, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.route(GameMessage{Type: "start", RoomID: "r1"}, connA, outA)
	drain(outA)
	drain(outB)

	// Put the round into a known position: A to act on red three, holding a
	// red drawTwo.
	room := srv.Rooms.GetOrCreate("r1")
	card := models.Card{Color: models.ColorRed, Value: models.ValueDrawTwo}
	room.Mu.Lock()
	room.CurrentPlayerIndex = 0
	room.Direction = 1
	room.AccumulatedDraw = 0
	room.CurrentColor = models.ColorRed
	room.CurrentValue = models.ValueThree
	room.Players[0].Hand = append(room.Players[0].Hand, card)
	handB := len(room.Players[1].Hand)
	room.Mu.Unlock()

	srv.route(GameMessage{Type: "playCard", RoomID: "r1", PlayerID: "alice", Card: &card}, connA, outA)
	for _, out := range []chan []byte{outA, outB} {
		m := recv(t, out)
		require.Equal(t, "played", m["type"])
		assert.Nil(t, m["winnerId"])
		state := m["state"].(map[string]interface{})
		assert.Equal(t, float64(2), state["accumulatedDraw"])
		assert.Equal(t, "bob", state["currentPlayerId"])
	}

	srv.route(GameMessage{Type: "drawCard", RoomID: "r1", PlayerID: "bob"}, connB, outB)
	for _, out := range []chan []byte{outA, outB} {
		m := recv(t, out)
		require.Equal(t, "drew", m["type"])
		assert.Equal(t, float64(2), m["drawn"])
		state := m["state"].(map[string]interface{})
		assert.Equal(t, float64(0), state["accumulatedDraw"])
		assert.Equal(t, "alice", state["currentPlayerId"])
	}

	room.Mu.Lock()
	assert.Len(t, room.Players[1].Hand, handB+2)
	room.Mu.Unlock()
}

func TestRejectedActionIsNotBroadcast(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	connB, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.route(GameMessage{Type: "start", RoomID: "r1"}, connA, outA)
	drain(outA)
	drain(outB)

	room := srv.Rooms.GetOrCreate("r1")
	room.Mu.Lock()
	room.CurrentPlayerIndex = 0
	room.Direction = 1
	room.Mu.Unlock()

	srv.route(GameMessage{Type: "drawCard", RoomID: "r1", PlayerID: "bob"}, connB, outB)
	assert.Equal(t, ErrCodeNotYourTurn, recv(t, outB)["error"])
	select {
	case <-outA:
		t.Fatal("a rejected action must not be broadcast")
	default:
	}
}

func TestCalloutWithoutOffendersRepliesOnly(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	_, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.route(GameMessage{Type: "start", RoomID: "r1"}, connA, outA)
	drain(outA)
	drain(outB)

	srv.route(GameMessage{Type: "calloutUno", RoomID: "r1", PlayerID: "alice"}, connA, outA)
	m := recv(t, outA)
	require.Equal(t, "unoPenalty", m["type"])
	assert.Empty(t, m["offenders"])
	select {
	case <-outB:
		t.Fatal("an empty callout must not be broadcast")
	default:
	}
}

func TestDisconnectBroadcastsAndReclaims(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	connB, _ := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.handleDisconnect(connB)
	m := recv(t, outA)
	assert.Equal(t, "playerLeft", m["type"])
	assert.Equal(t, "bob", m["playerId"])
	assert.Equal(t, 1, srv.Rooms.Len(), "the room survives while a member is connected")

	srv.handleDisconnect(connA)
	assert.Zero(t, srv.Rooms.Len(), "the room is reclaimed once everyone is gone")
}

func TestReconnectRebindsSink(t *testing.T) {
	srv := newTestServer()
	connA, outA := joinPlayer(t, srv, "r1", "alice")
	_, outB := joinPlayer(t, srv, "r1", "bob")
	drain(outA)

	srv.handleDisconnect(connA)
	drain(outB)

	// Same player id, fresh connection.
	_, outA2 := joinPlayer(t, srv, "r1", "alice")
	m := recv(t, outB)
	assert.Equal(t, "playerJoined", m["type"])

	room := srv.Rooms.GetOrCreate("r1")
	room.Mu.Lock()
	p := room.Players[0]
	assert.Equal(t, "alice", p.ID)
	assert.True(t, p.Connected)
	room.Mu.Unlock()

	srv.route(GameMessage{Type: "getState", RoomID: "r1"}, uuid.New(), outA2)
	assert.Equal(t, "state", recv(t, outA2)["type"])
}
