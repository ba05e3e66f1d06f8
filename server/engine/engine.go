package engine

import (
	"errors"
	"fmt"
)

// Rule violations. None of these mutate state.
var (
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrAlreadyFolded     = errors.New("player has folded")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrNegativeAmount    = errors.New("amount must be non-negative")
	ErrRoundInProgress   = errors.New("round in progress")
)

// Game is the authoritative betting state machine. It is not safe for
// concurrent use; the hub drives it from a single owner goroutine.
type Game struct {
	state     GameState
	roundLive bool
}

func New() *Game {
	return &Game{state: GameState{CurrentRound: 1, GameStatus: StatusWaiting}}
}

// AddPlayer seats a new player at the end of the turn order. Seating
// is only allowed between rounds.
func (g *Game) AddPlayer(name string, chips int) (string, error) {
	if g.roundLive {
		return "", ErrRoundInProgress
	}
	p := newPlayer(name, chips)
	g.state.Players = append(g.state.Players, p)
	return p.ID, nil
}

// StartRound resets everything except chip balances and the round
// counter, then hands the turn to the first player. With no players
// seated it only sets an error status.
func (g *Game) StartRound() {
	if len(g.state.Players) == 0 {
		g.state.GameStatus = statusNoPlayers
		return
	}

	g.state.GameStatus = fmt.Sprintf("Round %d", g.state.CurrentRound)
	g.state.Pot = 0
	for _, p := range g.state.Players {
		p.CurrentBet = 0
		p.LastAction = nil
		p.HasFolded = false
	}
	g.state.CurrentRound++
	g.state.ActivePlayerIndex = 0
	g.roundLive = true
}

// Apply validates act against the current state and applies it on
// behalf of playerID. Only the active, unfolded player may act; raise
// and call must be covered by the player's chips. After an accepted
// action the turn advances (which may resolve the round).
func (g *Game) Apply(playerID string, act Action) error {
	idx := g.indexOf(playerID)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	if idx != g.state.ActivePlayerIndex {
		return ErrNotYourTurn
	}
	p := g.state.Players[idx]
	if p.HasFolded {
		return ErrAlreadyFolded
	}

	switch act.Kind {
	case Fold:
		p.HasFolded = true
		p.LastAction = &Action{Kind: Fold}
	case Raise, Call:
		if act.Amount < 0 {
			return ErrNegativeAmount
		}
		if p.Chips < act.Amount {
			return ErrInsufficientChips
		}
		p.Chips -= act.Amount
		g.state.Pot += act.Amount
		p.CurrentBet += act.Amount
		p.LastAction = &Action{Kind: act.Kind, Amount: act.Amount}
	case Check:
		p.LastAction = &Action{Kind: Check}
	default:
		return fmt.Errorf("unknown action %q", act.Kind)
	}

	g.advanceTurn()
	return nil
}

// advanceTurn moves the active index forward circularly, skipping
// folded players. If at most one unfolded player remains the round
// resolves instead of advancing.
func (g *Game) advanceTurn() {
	if g.unfoldedCount() <= 1 {
		g.Resolve()
		return
	}
	n := len(g.state.Players)
	next := g.state.ActivePlayerIndex
	for {
		next = (next + 1) % n
		if !g.state.Players[next].HasFolded || next == g.state.ActivePlayerIndex {
			break
		}
	}
	g.state.ActivePlayerIndex = next
}

// Resolve awards the pot to the first unfolded player in turn order.
// Last man standing, not a showdown.
func (g *Game) Resolve() {
	var winner *Player
	for _, p := range g.state.Players {
		if !p.HasFolded {
			winner = p
			break
		}
	}
	if winner == nil {
		g.state.GameStatus = statusNoWinner
		g.roundLive = false
		return
	}

	winner.Chips += g.state.Pot
	g.state.Pot = 0
	g.state.GameStatus = fmt.Sprintf("Player %s wins Round %d", winner.Name, g.state.CurrentRound-1)
	g.roundLive = false
}

// BettingConverged reports whether every unfolded player has matched
// the same bet this round. Zero or one unfolded player counts as
// converged.
func (g *Game) BettingConverged() bool {
	seen := make(map[int]struct{})
	for _, p := range g.state.Players {
		if p.HasFolded {
			continue
		}
		seen[p.CurrentBet] = struct{}{}
	}
	return len(seen) <= 1
}

// RoundLive reports whether a round is currently being played.
func (g *Game) RoundLive() bool { return g.roundLive }

// PlayerCount returns the number of seated players.
func (g *Game) PlayerCount() int { return len(g.state.Players) }

// Snapshot returns a deep copy of the state, safe to serialize outside
// the owner goroutine.
func (g *Game) Snapshot() GameState {
	out := g.state
	out.Players = make([]*Player, len(g.state.Players))
	for i, p := range g.state.Players {
		cp := *p
		if p.LastAction != nil {
			a := *p.LastAction
			cp.LastAction = &a
		}
		out.Players[i] = &cp
	}
	return out
}

func (g *Game) indexOf(playerID string) int {
	for i, p := range g.state.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

func (g *Game) unfoldedCount() int {
	n := 0
	for _, p := range g.state.Players {
		if !p.HasFolded {
			n++
		}
	}
	return n
}
