package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	depth := flag.Int("depth", 0, "search depth for player one (0 = config default)")
	oppDepth := flag.Int("opponent-depth", 0, "search depth for player two (0 = config default)")
	opponent := flag.String("opponent", "minimax", "player two type: minimax or random")
	games := flag.Int("games", 1, "number of games to simulate")
	position := flag.String("position", "", "starting position as a string of column digits, e.g. 334455")
	budgetMs := flag.Int("budget-ms", 0, "optional wall-clock budget per move in milliseconds")
	threads := flag.Int("threads", 1, "root helper threads sharing the transposition table")
	stats := flag.Bool("stats", false, "log per-search statistics")
	verbose := flag.Bool("verbose", false, "print the board after every move")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	config := GetConfig()
	if *budgetMs > 0 {
		config.AiTimeBudgetMs = *budgetMs
	}
	if *threads > 1 {
		config.AiRootThreads = *threads
	}
	config.AiLogSearchStats = *stats
	configStore.Update(config)

	if err := run(config, *depth, *oppDepth, *opponent, *games, *position, *verbose); err != nil {
		log.Error().Err(err).Msg("match-failed")
		os.Exit(1)
	}
}

func run(config Config, depth, oppDepth int, opponent string, games int, position string, verbose bool) error {
	opening := NewBoard()
	if position != "" {
		parsed, err := ParseMoves(position)
		if err != nil {
			return fmt.Errorf("invalid -position: %w", err)
		}
		opening = parsed
	}

	if depth < 1 {
		depth = config.AiDepth
	}
	if oppDepth < 1 {
		oppDepth = config.AiDepth
	}

	cache := NewTranspositionTable(config.AiTtSize, config.AiTtBuckets)
	playerOne := NewAIPlayer(fmt.Sprintf("minimax(d=%d)", depth), depth, cache, config)

	var playerTwo IPlayer
	switch opponent {
	case "minimax":
		playerTwo = NewAIPlayer(fmt.Sprintf("minimax(d=%d)", oppDepth), oppDepth, cache, config)
	case "random":
		playerTwo = NewRandomPlayer("random")
	default:
		return fmt.Errorf("unknown opponent type %q", opponent)
	}

	match := NewMatch(playerOne, playerTwo, cache, MatchSettings{
		Games:   games,
		Opening: opening,
		Verbose: verbose,
	})
	_, err := match.Run()
	return err
}
