package main

import (
	"time"

	"lukechampine.com/frand"
)

// AIPlayer picks moves with the alpha-beta search. The search depth is its
// only strength knob; all players in a match share one transposition table.
type AIPlayer struct {
	name       string
	depth      int
	cache      *TranspositionTable
	config     Config
	lastResult SearchResult
	hasResult  bool
}

func NewAIPlayer(name string, depth int, cache *TranspositionTable, config Config) *AIPlayer {
	if depth < 1 {
		depth = 1
	}
	return &AIPlayer{name: name, depth: depth, cache: cache, config: config}
}

func (a *AIPlayer) Name() string {
	return a.name
}

func (a *AIPlayer) ChooseMove(b Board) (Move, error) {
	stats := &SearchStats{Start: time.Now()}
	result, err := Search(&b, AISearchSettings{
		Depth:  a.depth,
		Cache:  a.cache,
		Config: a.config,
		Stats:  stats,
	})
	if err != nil {
		return NoMove, err
	}
	a.lastResult = result
	a.hasResult = true
	return result.Move, nil
}

// LastSearch reports the result of the most recent ChooseMove, for
// move-by-move match output.
func (a *AIPlayer) LastSearch() (SearchResult, bool) {
	return a.lastResult, a.hasResult
}

func (a *AIPlayer) CacheSize() int {
	return a.cache.Count()
}

// RandomPlayer plays a uniformly random legal column. Used as a weak
// baseline opponent in AI-vs-AI simulations.
type RandomPlayer struct {
	name string
}

func NewRandomPlayer(name string) *RandomPlayer {
	return &RandomPlayer{name: name}
}

func (r *RandomPlayer) Name() string {
	return r.name
}

func (r *RandomPlayer) ChooseMove(b Board) (Move, error) {
	legal := b.LegalMoves()
	if len(legal) == 0 {
		return NoMove, ErrNoLegalMove
	}
	return legal[frand.Intn(len(legal))], nil
}
