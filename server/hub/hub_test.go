package hub

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"testing"

	"pokerlite/server/engine"
	"pokerlite/server/protocol"
)

// Tests drive the hub's command handlers directly on the test
// goroutine, the same serialization Run provides.

func newTestHub(buffer int) *Hub {
	return New(
		Config{StartChips: 100, SendBuffer: buffer},
		engine.New(),
		log.New(io.Discard, "", 0),
	)
}

func join(t *testing.T, h *Hub, name string) *client {
	t.Helper()
	c := &client{name: name, hub: h, send: make(chan []byte, h.cfg.SendBuffer), log: h.log}
	h.handleRegister(c)
	drain(c)
	return c
}

// drain empties a client's outbound buffer and returns what was queued.
func drain(c *client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func decodeType(t *testing.T, raw []byte) string {
	t.Helper()
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return env.Type
}

func TestRegisterSendsWelcomeAndState(t *testing.T) {
	h := newTestHub(8)
	c := &client{name: "Alice", hub: h, send: make(chan []byte, 8), log: h.log}
	h.handleRegister(c)

	msgs := drain(c)
	if len(msgs) != 2 {
		t.Fatalf("expected welcome + state, got %d messages", len(msgs))
	}
	if got := decodeType(t, msgs[0]); got != protocol.TypeWelcome {
		t.Fatalf("first message: got %q", got)
	}
	if got := decodeType(t, msgs[1]); got != protocol.TypeStateUpdate {
		t.Fatalf("second message: got %q", got)
	}
	if c.playerID == "" {
		t.Fatal("client not seated before a round")
	}
}

func TestAcceptedActionBroadcastsIdenticallyToAll(t *testing.T) {
	h := newTestHub(8)
	a := join(t, h, "Alice")
	b := join(t, h, "Bob")

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	aMsgs, bMsgs := drain(a), drain(b)
	if len(aMsgs) != 1 || len(bMsgs) != 1 {
		t.Fatalf("start broadcast counts: a=%d b=%d", len(aMsgs), len(bMsgs))
	}
	if !bytes.Equal(aMsgs[0], bMsgs[0]) {
		t.Fatalf("payloads differ:\n%s\n%s", aMsgs[0], bMsgs[0])
	}

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{
		Type:   protocol.TypePlayerAction,
		Action: engine.Action{Kind: engine.Raise, Amount: 10},
	}})
	aMsgs, bMsgs = drain(a), drain(b)
	if len(aMsgs) != 1 || len(bMsgs) != 1 {
		t.Fatalf("action broadcast counts: a=%d b=%d", len(aMsgs), len(bMsgs))
	}
	if !bytes.Equal(aMsgs[0], bMsgs[0]) {
		t.Fatal("broadcast payloads differ between connections")
	}
	if got := decodeType(t, aMsgs[0]); got != protocol.TypeStateUpdate {
		t.Fatalf("broadcast type: %q", got)
	}
}

func TestRejectionGoesOnlyToOffender(t *testing.T) {
	h := newTestHub(8)
	a := join(t, h, "Alice")
	b := join(t, h, "Bob")

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	drain(a)
	drain(b)

	// Bob is not the active player.
	h.handleCommand(inboundMsg{c: b, cmd: protocol.Command{
		Type:   protocol.TypePlayerAction,
		Action: engine.Action{Kind: engine.Check},
	}})

	bMsgs := drain(b)
	if len(bMsgs) != 1 || decodeType(t, bMsgs[0]) != protocol.TypeActionRejected {
		t.Fatalf("offender messages: %d", len(bMsgs))
	}
	if msgs := drain(a); len(msgs) != 0 {
		t.Fatalf("other client observed a rejected action: %d messages", len(msgs))
	}
}

func TestSlowConsumerIsDroppedNotWaitedOn(t *testing.T) {
	h := newTestHub(1)
	a := join(t, h, "Alice")
	b := join(t, h, "Bob")

	// Fill Bob's outbound buffer so the next broadcast cannot queue.
	b.send <- []byte("stall")

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})

	if msgs := drain(a); len(msgs) != 1 {
		t.Fatalf("healthy client missed the broadcast: %d messages", len(msgs))
	}
	if h.registry.Len() != 1 {
		t.Fatalf("slow client still registered: len=%d", h.registry.Len())
	}
	<-b.send // the stalled payload
	if _, ok := <-b.send; ok {
		t.Fatal("slow client's send channel not closed")
	}
}

func TestMidRoundJoinIsDeferredUntilNextRound(t *testing.T) {
	h := newTestHub(8)
	a := join(t, h, "Alice")
	b := join(t, h, "Bob")

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	drain(a)
	drain(b)

	c := &client{name: "Cara", hub: h, send: make(chan []byte, 8), log: h.log}
	h.handleRegister(c)
	drain(c)
	if c.playerID != "" {
		t.Fatal("client seated mid-round")
	}

	// Cara still receives broadcasts but cannot act.
	h.handleCommand(inboundMsg{c: c, cmd: protocol.Command{
		Type:   protocol.TypePlayerAction,
		Action: engine.Action{Kind: engine.Check},
	}})
	msgs := drain(c)
	if len(msgs) != 1 || decodeType(t, msgs[0]) != protocol.TypeActionRejected {
		t.Fatalf("expected a rejection, got %d messages", len(msgs))
	}

	// Resolve the round: Alice checks, Bob folds.
	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{
		Type: protocol.TypePlayerAction, Action: engine.Action{Kind: engine.Check},
	}})
	h.handleCommand(inboundMsg{c: b, cmd: protocol.Command{
		Type: protocol.TypePlayerAction, Action: engine.Action{Kind: engine.Fold},
	}})
	drain(a)
	drain(b)
	drain(c)

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	if c.playerID == "" {
		t.Fatal("deferred client not seated at next round")
	}
	if h.game.PlayerCount() != 3 {
		t.Fatalf("player count: got %d, want 3", h.game.PlayerCount())
	}
}

func TestStartRoundWhileLiveIsRejected(t *testing.T) {
	h := newTestHub(8)
	a := join(t, h, "Alice")
	b := join(t, h, "Bob")

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	drain(a)
	drain(b)

	h.handleCommand(inboundMsg{c: b, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	bMsgs := drain(b)
	if len(bMsgs) != 1 || decodeType(t, bMsgs[0]) != protocol.TypeActionRejected {
		t.Fatalf("expected rejection, got %d messages", len(bMsgs))
	}
	if msgs := drain(a); len(msgs) != 0 {
		t.Fatalf("restart attempt broadcast to others: %d messages", len(msgs))
	}
}

func TestQueuedCommandFromDroppedClientIsIgnored(t *testing.T) {
	h := newTestHub(8)
	a := join(t, h, "Alice")
	b := join(t, h, "Bob")

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	drain(a)
	drain(b)

	// Bob disconnects while a command of his is still queued. Handling
	// it must not touch his closed send channel or the game.
	h.drop(b)
	h.handleCommand(inboundMsg{c: b, cmd: protocol.Command{
		Type:   protocol.TypePlayerAction,
		Action: engine.Action{Kind: engine.Check},
	}})

	if msgs := drain(a); len(msgs) != 0 {
		t.Fatalf("dropped client's command reached others: %d messages", len(msgs))
	}
	if s := h.game.Snapshot(); s.ActivePlayerIndex != 0 {
		t.Fatalf("dropped client's command mutated state: active=%d", s.ActivePlayerIndex)
	}
}

func TestDisconnectDoesNotFold(t *testing.T) {
	h := newTestHub(8)
	a := join(t, h, "Alice")
	b := join(t, h, "Bob")

	h.handleCommand(inboundMsg{c: a, cmd: protocol.Command{Type: protocol.TypeStartRound}})
	drain(a)
	drain(b)

	h.drop(b)
	if h.registry.Len() != 1 {
		t.Fatalf("registry len: %d", h.registry.Len())
	}
	s := h.game.Snapshot()
	if s.Players[1].HasFolded {
		t.Fatal("disconnect auto-folded the player")
	}
	if !h.game.RoundLive() {
		t.Fatal("round resolved on disconnect")
	}
}
