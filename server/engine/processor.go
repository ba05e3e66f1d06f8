package engine

// Result of processing one decoded action.
type Result struct {
	Applied bool
	Reason  string
}

// Processor is the single entry point for action traffic into a Game.
// It must only be driven from the hub's owner goroutine, which is what
// makes the active-player check race-free.
type Processor struct {
	game *Game
}

func NewProcessor(g *Game) *Processor { return &Processor{game: g} }

// Process applies act on behalf of playerID. Rule violations come back
// as a rejection with a reason and never mutate state; the caller
// decides whether to surface the reason to the sender.
func (pr *Processor) Process(playerID string, act Action) Result {
	if err := pr.game.Apply(playerID, act); err != nil {
		return Result{Reason: err.Error()}
	}
	return Result{Applied: true}
}
