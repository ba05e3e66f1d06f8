// Package hub owns the live game. One goroutine (Run) is the single
// writer: it dequeues joins, leaves, and decoded commands one at a
// time, applies them through the action processor, and fans every
// accepted mutation out to all registered connections.
package hub

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pokerlite/server/engine"
	"pokerlite/server/protocol"
)

// Config tunes the hub.
type Config struct {
	StartChips int // chip stack handed to a newly seated player
	SendBuffer int // per-connection outbound buffer
}

type inboundMsg struct {
	c   *client
	cmd protocol.Command
}

// Hub wires the engine, registry, and websocket clients together.
type Hub struct {
	cfg      Config
	game     *engine.Game
	proc     *engine.Processor
	registry *Registry

	register   chan *client
	unregister chan *client
	inbound    chan inboundMsg

	// connections that arrived mid-round; seated before the next
	// round starts
	pending []*client

	upgrader websocket.Upgrader
	log      *log.Logger
}

func New(cfg Config, game *engine.Game, logger *log.Logger) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	return &Hub{
		cfg:        cfg,
		game:       game,
		proc:       engine.NewProcessor(game),
		registry:   NewRegistry(),
		register:   make(chan *client),
		unregister: make(chan *client),
		inbound:    make(chan inboundMsg, 128),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

// Registry exposes the connection registry, mainly for the router.
func (h *Hub) Registry() *Registry { return h.registry }

// Run processes one command at a time until ctx is cancelled. It is
// the only goroutine allowed to touch the engine or close a client's
// send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.drop(c)
		case m := <-h.inbound:
			h.handleCommand(m)
		}
	}
}

// HandleWS upgrades the request and hands the connection to the hub.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Printf("upgrade error: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(), // before the pumps start, so their logs see it
		name: r.URL.Query().Get("name"),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.cfg.SendBuffer),
		log:  h.log,
	}
	h.register <- c
	go c.writePump()
	go c.readPump()
}

// dispatch decodes raw bytes from a connection's reader and queues the
// command. Undecodable traffic is logged and dropped; the connection
// and the game state are unaffected.
func (h *Hub) dispatch(c *client, raw []byte) {
	cmd, err := protocol.DecodeCommand(raw)
	if err != nil {
		h.log.Printf("bad message: conn=%s err=%v", c.id, err)
		return
	}
	h.inbound <- inboundMsg{c: c, cmd: cmd}
}

func (h *Hub) handleRegister(c *client) {
	h.registry.Register(c)
	if h.game.RoundLive() {
		h.pending = append(h.pending, c)
		h.log.Printf("client join (seat deferred): conn=%s", c.id)
	} else {
		h.seat(c)
	}

	if msg, err := protocol.EncodeWelcome(c.id); err == nil {
		c.trySend(msg)
	}
	if msg, err := protocol.EncodeState(h.game.Snapshot(), ""); err == nil {
		c.trySend(msg)
	}
}

// seat puts the connection's player on the table. Callers must make
// sure no round is live.
func (h *Hub) seat(c *client) {
	name := c.name
	if name == "" {
		name = fmt.Sprintf("Player %d", h.game.PlayerCount()+1)
		c.name = name
	}
	id, err := h.game.AddPlayer(name, h.cfg.StartChips)
	if err != nil {
		h.log.Printf("seat failed: conn=%s err=%v", c.id, err)
		return
	}
	c.playerID = id
	h.log.Printf("player seated: conn=%s name=%s chips=%d", c.id, name, h.cfg.StartChips)
}

func (h *Hub) seatPending() {
	for _, c := range h.pending {
		h.seat(c)
	}
	h.pending = nil
}

func (h *Hub) handleCommand(m inboundMsg) {
	// A dropped connection's commands may still be queued; its send
	// channel is closed, so it must not be replied to or acted for.
	if !h.registry.Contains(m.c.id) {
		return
	}

	switch m.cmd.Type {
	case protocol.TypeStartRound:
		if h.game.RoundLive() {
			h.reject(m.c, "round in progress")
			return
		}
		h.seatPending()
		h.game.StartRound()
		h.broadcast("")

	case protocol.TypePlayerAction:
		if m.c.playerID == "" {
			h.reject(m.c, "not seated")
			return
		}
		res := h.proc.Process(m.c.playerID, m.cmd.Action)
		if !res.Applied {
			h.reject(m.c, res.Reason)
			return
		}
		h.broadcast("")
	}
}

// broadcast serializes the state once and pushes it to every
// registered connection. A slow consumer is dropped, never waited on.
func (h *Hub) broadcast(message string) {
	payload, err := protocol.EncodeState(h.game.Snapshot(), message)
	if err != nil {
		h.log.Printf("encode state: %v", err)
		return
	}
	for _, c := range h.registry.Snapshot() {
		if !c.trySend(payload) {
			h.log.Printf("slow consumer, dropping: conn=%s name=%s", c.id, c.name)
			h.drop(c)
		}
	}
}

// reject notifies only the offending connection. Other clients never
// observe a rejected action.
func (h *Hub) reject(c *client, reason string) {
	msg, err := protocol.EncodeRejection(reason)
	if err != nil {
		return
	}
	c.trySend(msg)
}

// drop unregisters the connection and closes its send channel exactly
// once. Seats are not auto-folded on disconnect; the player simply
// sits out until reconnected or the next round.
func (h *Hub) drop(c *client) {
	if h.registry.Unregister(c.id) == nil {
		return
	}
	close(c.send)
	for i, p := range h.pending {
		if p == c {
			h.pending = append(h.pending[:i], h.pending[i+1:]...)
			break
		}
	}
	h.log.Printf("client leave: conn=%s name=%s", c.id, c.name)
}
