package engine

import "github.com/google/uuid"

// ActionKind tags a player action.
type ActionKind string

const (
	Fold  ActionKind = "fold"
	Raise ActionKind = "raise"
	Call  ActionKind = "call"
	Check ActionKind = "check"
)

// Action pairs a kind with the chips it moves. Amount is meaningful
// only for raise and call.
type Action struct {
	Kind   ActionKind `json:"action"`
	Amount int        `json:"amount,omitempty"`
}

// Player is one seat at the table. Owned by the Game; network code
// only ever sees copies via Snapshot.
type Player struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Chips      int     `json:"chips"`
	CurrentBet int     `json:"currentBet"`
	LastAction *Action `json:"action,omitempty"`
	HasFolded  bool    `json:"hasFolded"`
}

func newPlayer(name string, chips int) *Player {
	return &Player{ID: uuid.NewString(), Name: name, Chips: chips}
}

// GameState is the shared view broadcast to every client. Player order
// is turn order and stays fixed while a round is live.
type GameState struct {
	Players           []*Player `json:"players"`
	Pot               int       `json:"pot"`
	CurrentRound      int       `json:"currentRound"`
	ActivePlayerIndex int       `json:"activePlayerIndex"`
	GameStatus        string    `json:"gameStatus"`
}

// Status strings surfaced on GameState.
const (
	StatusWaiting   = "Waiting to Start"
	statusNoPlayers = "No players available."
	statusNoWinner  = "Error: No winner available."
)
