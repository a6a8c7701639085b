package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"
)

type MatchSettings struct {
	Games   int
	Opening Board
	Verbose bool
}

type GameRecord struct {
	Winner    Player
	Draw      bool
	Moves     int
	WonByP1   bool
	FirstMove IPlayer
}

type MatchStats struct {
	Games   int
	Wins    int // player one
	Losses  int
	Draws   int
	Elapsed time.Duration
}

// Match pits two players against each other for a number of games,
// alternating turns in a single goroutine. Which player opens is drawn at
// random each game, as in the original simulation.
type Match struct {
	playerOne IPlayer
	playerTwo IPlayer
	cache     *TranspositionTable
	settings  MatchSettings
}

func NewMatch(playerOne, playerTwo IPlayer, cache *TranspositionTable, settings MatchSettings) *Match {
	if settings.Games < 1 {
		settings.Games = 1
	}
	return &Match{
		playerOne: playerOne,
		playerTwo: playerTwo,
		cache:     cache,
		settings:  settings,
	}
}

func (m *Match) Run() (MatchStats, error) {
	stats := MatchStats{}
	start := time.Now()
	log.Info().
		Str("player_one", m.playerOne.Name()).
		Str("player_two", m.playerTwo.Name()).
		Int("games", m.settings.Games).
		Msg("match-start")

	for i := 0; i < m.settings.Games; i++ {
		record, err := m.playGame(i)
		if err != nil {
			return stats, fmt.Errorf("game %d: %w", i+1, err)
		}
		stats.Games++
		switch {
		case record.Draw:
			stats.Draws++
		case record.WonByP1:
			stats.Wins++
		default:
			stats.Losses++
		}
		log.Info().
			Int("game", i+1).
			Int("of", m.settings.Games).
			Bool("draw", record.Draw).
			Str("winner", gameWinnerName(record)).
			Int("moves", record.Moves).
			Msg("game-complete")

		// Stale shallow analysis must not contaminate the next game.
		if m.cache != nil {
			m.cache.Clear()
		}
	}
	stats.Elapsed = time.Since(start)

	winRatio := float64(stats.Wins) / float64(stats.Games)
	log.Info().
		Int("wins", stats.Wins).
		Int("losses", stats.Losses).
		Int("draws", stats.Draws).
		Float64("win_ratio", winRatio).
		Dur("avg_game", stats.Elapsed/time.Duration(stats.Games)).
		Msg("match-complete")
	return stats, nil
}

func (m *Match) playGame(index int) (GameRecord, error) {
	board := m.settings.Opening
	players := [2]IPlayer{m.playerOne, m.playerTwo}
	if frand.Intn(2) == 1 {
		players[0], players[1] = players[1], players[0]
	}

	turn := 0
	startMoves := board.MoveCount()
	for !board.IsTerminal() {
		player := players[turn]
		moveStart := time.Now()
		move, err := player.ChooseMove(board)
		if err != nil {
			return GameRecord{}, fmt.Errorf("player %s: %w", player.Name(), err)
		}
		if err := board.ApplyMove(move); err != nil {
			// A search emitting an illegal move is a bug, not a user error.
			return GameRecord{}, fmt.Errorf("player %s chose %s: %w", player.Name(), move, err)
		}
		if m.cache != nil {
			m.cache.NextGeneration()
		}

		event := log.Debug().
			Int("game", index+1).
			Str("player", player.Name()).
			Str("color", otherPlayer(board.ToMove()).String()).
			Int("col", int(move)).
			Int("move_no", board.MoveCount()).
			Dur("elapsed", time.Since(moveStart))
		if ai, ok := player.(*AIPlayer); ok {
			if result, ok := ai.LastSearch(); ok {
				event = event.Int("score", result.Score).Int("depth", result.Depth)
			}
		}
		event.Msg("move")
		if m.settings.Verbose {
			fmt.Println(board.String())
			fmt.Println()
		}
		turn ^= 1
	}

	record := GameRecord{
		Moves:     board.MoveCount() - startMoves,
		FirstMove: players[0],
	}
	switch {
	case board.CheckWin(PlayerRed):
		record.Winner = PlayerRed
	case board.CheckWin(PlayerYellow):
		record.Winner = PlayerYellow
	default:
		record.Draw = true
		return record, nil
	}
	// The mover on the final turn is the winner; turn was flipped after it.
	record.WonByP1 = players[turn^1] == m.playerOne
	return record, nil
}

func gameWinnerName(record GameRecord) string {
	if record.Draw {
		return ""
	}
	if record.WonByP1 {
		return "player_one"
	}
	return "player_two"
}
