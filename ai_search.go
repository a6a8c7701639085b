package main

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

// errSearchAborted unwinds the recursion when the time budget or an
// external stop signal fires; the caller keeps the last completed depth.
var errSearchAborted = errors.New("search aborted")

type SearchResult struct {
	Move  Move
	Score int
	Depth int
}

type AISearchSettings struct {
	Depth      int
	Cache      *TranspositionTable
	Config     Config
	Stats      *SearchStats
	ShouldStop func() bool
}

type SearchStats struct {
	Nodes           int64
	TTProbes        int64
	TTHits          int64
	TTStores        int64
	Cutoffs         int64
	TTCutoffs       int64
	Start           time.Time
	DepthDurations  []time.Duration
	CompletedDepths int
}

type searchContext struct {
	cache       *TranspositionTable
	config      Config
	stats       *SearchStats
	deadline    time.Time
	hasDeadline bool
	shouldStop  func() bool
}

func (ctx *searchContext) stopped() bool {
	if ctx.shouldStop != nil && ctx.shouldStop() {
		return true
	}
	return ctx.hasDeadline && time.Now().After(ctx.deadline)
}

type solution struct {
	move  Move
	score int
}

// Search runs depth-limited negamax with alpha-beta pruning from b,
// deepening iteratively so a time budget still yields the best move of the
// last completed depth. On an already-decided board it returns the
// terminal score, no move, and ErrNoLegalMove.
func Search(b *Board, settings AISearchSettings) (SearchResult, error) {
	if settings.Config == (Config{}) {
		settings.Config = GetConfig()
	}
	if settings.Depth < 1 {
		settings.Depth = 1
	}
	if b.IsTerminal() {
		return SearchResult{Move: NoMove, Score: terminalScore(b, 0)}, ErrNoLegalMove
	}

	ctx := &searchContext{
		cache:      settings.Cache,
		config:     settings.Config,
		stats:      settings.Stats,
		shouldStop: settings.ShouldStop,
	}
	start := time.Now()
	if settings.Config.AiTimeBudgetMs > 0 {
		ctx.deadline = start.Add(time.Duration(settings.Config.AiTimeBudgetMs) * time.Millisecond)
		ctx.hasDeadline = true
	}
	if ctx.stats != nil && ctx.stats.Start.IsZero() {
		ctx.stats.Start = start
	}

	root := *b
	moves := root.LegalMoves()
	best := SearchResult{Move: NoMove}

	for depth := 1; depth <= settings.Depth; depth++ {
		depthStart := time.Now()
		stopHelpers := startRootHelpers(ctx, root, depth)
		sols, err := searchRoot(&root, ctx, moves, depth)
		stopHelpers()
		if err != nil {
			if errors.Is(err, errSearchAborted) {
				break
			}
			return best, err
		}
		if ctx.config.AiShuffleTies {
			shuffleTopTies(sols)
		}
		best = SearchResult{Move: sols[0].move, Score: sols[0].score, Depth: depth}
		if ctx.stats != nil {
			ctx.stats.DepthDurations = append(ctx.stats.DepthDurations, time.Since(depthStart))
			ctx.stats.CompletedDepths = depth
		}
		// Re-search the best lines first on the next iteration.
		moves = lo.Map(sols, func(s solution, _ int) Move { return s.move })
		if best.Score > winThreshold || best.Score < -winThreshold {
			break // forced line found, deeper search cannot improve it
		}
	}

	if best.Move == NoMove {
		// Budget expired before depth 1 completed; any legal move will do.
		best = SearchResult{Move: moves[0], Score: 0}
	}
	if ctx.config.AiLogSearchStats && ctx.stats != nil {
		logSearchStats(ctx.stats, settings, time.Since(start))
	}
	return best, nil
}

// searchRoot scores every root move with a full-width window and returns
// the solutions sorted best first.
func searchRoot(b *Board, ctx *searchContext, moves []Move, depth int) ([]solution, error) {
	alpha := -infScore
	beta := infScore
	sols := make([]solution, 0, len(moves))
	for _, col := range moves {
		if err := b.ApplyMove(col); err != nil {
			return nil, err
		}
		value, err := negamax(b, ctx, depth-1, 1, -beta, -alpha)
		if undoErr := b.UndoMove(col); undoErr != nil {
			return nil, undoErr
		}
		if err != nil {
			return nil, err
		}
		value = -value
		sols = append(sols, solution{move: col, score: value})
		if value > alpha {
			alpha = value
		}
	}
	sort.SliceStable(sols, func(i, j int) bool {
		return sols[i].score > sols[j].score
	})
	return sols, nil
}

func negamax(b *Board, ctx *searchContext, depth, ply, alpha, beta int) (int, error) {
	// Terminal before anything else: only the player who just moved can
	// have completed an alignment.
	if b.CheckWin(otherPlayer(b.ToMove())) {
		return -(winScore - ply), nil
	}
	if b.MoveCount() == numCells {
		return 0, nil
	}
	if depth == 0 {
		return Evaluate(b, ctx.config.Heuristics), nil
	}
	if ctx.stopped() {
		return 0, errSearchAborted
	}
	if ctx.stats != nil {
		ctx.stats.Nodes++
	}

	key, mirrored := b.keyAndMirror()
	pvMove := NoMove
	if ctx.cache != nil {
		if ctx.stats != nil {
			ctx.stats.TTProbes++
		}
		if entry, ok := ctx.cache.Probe(key); ok {
			if ctx.stats != nil {
				ctx.stats.TTHits++
			}
			cachedMove := entry.BestMove
			if mirrored {
				cachedMove = cachedMove.mirrored()
			}
			if cachedMove.IsValid() {
				pvMove = cachedMove
			}
			// Entries searched shallower than required only seed ordering.
			if entry.Depth >= depth {
				score := scoreFromTT(int(entry.Score), ply)
				switch entry.Flag {
				case TTExact:
					if ctx.stats != nil {
						ctx.stats.TTCutoffs++
					}
					return score, nil
				case TTLower:
					if score > alpha {
						alpha = score
					}
				case TTUpper:
					if score < beta {
						beta = score
					}
				}
				if alpha >= beta {
					if ctx.stats != nil {
						ctx.stats.TTCutoffs++
					}
					return score, nil
				}
			}
		}
	}

	moves := b.LegalMoves()
	if pvMove.IsValid() {
		moveToFront(moves, pvMove)
	}

	// Bounds may have been tightened by the probe; flags below are
	// relative to the window actually searched.
	alphaOrig := alpha
	best := -infScore
	bestMove := NoMove
	for _, col := range moves {
		if err := b.ApplyMove(col); err != nil {
			return 0, err
		}
		value, err := negamax(b, ctx, depth-1, ply+1, -beta, -alpha)
		if undoErr := b.UndoMove(col); undoErr != nil {
			return 0, undoErr
		}
		if err != nil {
			return 0, err
		}
		value = -value
		if value > best {
			best = value
			bestMove = col
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			if ctx.stats != nil {
				ctx.stats.Cutoffs++
			}
			break
		}
	}

	if ctx.cache != nil {
		flag := TTExact
		if best <= alphaOrig {
			flag = TTUpper
		} else if best >= beta {
			flag = TTLower
		}
		storeMove := bestMove
		if mirrored {
			storeMove = storeMove.mirrored()
		}
		ctx.cache.Store(key, depth, scoreToTT(best, ply), flag, storeMove)
		if ctx.stats != nil {
			ctx.stats.TTStores++
		}
	}
	return best, nil
}

// startRootHelpers spawns helper searches over the same root to warm the
// shared transposition table (odd helpers search one ply deeper). Returns
// a stop function that cancels the helpers and waits for them.
func startRootHelpers(ctx *searchContext, root Board, depth int) func() {
	threads := ctx.config.AiRootThreads
	if threads < 2 || ctx.cache == nil || depth < 3 {
		return func() {}
	}
	helperCtx, cancel := context.WithCancel(context.Background())
	g := &errgroup.Group{}
	for t := 1; t < threads; t++ {
		boardCopy := root
		helperDepth := depth + t%2
		g.Go(func() error {
			hc := &searchContext{
				cache:  ctx.cache,
				config: ctx.config,
				shouldStop: func() bool {
					return helperCtx.Err() != nil || ctx.stopped()
				},
			}
			_, err := negamax(&boardCopy, hc, helperDepth, 0, -infScore, infScore)
			if err != nil && !errors.Is(err, errSearchAborted) {
				return err
			}
			return nil
		})
	}
	return func() {
		cancel()
		if err := g.Wait(); err != nil {
			log.Warn().Err(err).Msg("root-helper-failed")
		}
	}
}

func moveToFront(moves []Move, move Move) {
	for i, m := range moves {
		if m == move {
			copy(moves[1:i+1], moves[:i])
			moves[0] = move
			return
		}
	}
}

// shuffleTopTies randomizes the order of root moves sharing the best
// score, so repeated matches do not replay one line.
func shuffleTopTies(sols []solution) {
	n := 1
	for n < len(sols) && sols[n].score == sols[0].score {
		n++
	}
	if n > 1 {
		frand.Shuffle(n, func(i, j int) {
			sols[i], sols[j] = sols[j], sols[i]
		})
	}
}

// terminalScore is the score of an already-decided board from the side to
// move's perspective, ply plies below the search root.
func terminalScore(b *Board, ply int) int {
	if b.CheckWin(otherPlayer(b.ToMove())) {
		return -(winScore - ply)
	}
	if b.CheckWin(b.ToMove()) {
		return winScore - ply
	}
	return 0
}

// Win scores are stored relative to the probing node so a transposition
// reached at a different ply still reads the right win distance.
func scoreToTT(score, ply int) int {
	if score > winThreshold {
		return score + ply
	}
	if score < -winThreshold {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > winThreshold {
		return score - ply
	}
	if score < -winThreshold {
		return score + ply
	}
	return score
}

func logSearchStats(stats *SearchStats, settings AISearchSettings, elapsed time.Duration) {
	nps := 0.0
	if elapsed > 0 {
		nps = float64(stats.Nodes) / elapsed.Seconds()
	}
	ttHitRate := 0.0
	if stats.TTProbes > 0 {
		ttHitRate = float64(stats.TTHits) * 100.0 / float64(stats.TTProbes)
	}
	depthMs := make([]int64, 0, len(stats.DepthDurations))
	for _, d := range stats.DepthDurations {
		depthMs = append(depthMs, d.Milliseconds())
	}
	log.Info().
		Int("depth", settings.Depth).
		Int("completed", stats.CompletedDepths).
		Int64("nodes", stats.Nodes).
		Float64("nps", nps).
		Int64("tt_probes", stats.TTProbes).
		Int64("tt_hits", stats.TTHits).
		Float64("tt_hit_rate", ttHitRate).
		Int64("tt_stores", stats.TTStores).
		Int64("cutoffs", stats.Cutoffs).
		Int64("tt_cutoffs", stats.TTCutoffs).
		Int("tt_size", settings.Cache.Count()).
		Ints64("depth_ms", depthMs).
		Dur("elapsed", elapsed).
		Msg("search-stats")
}
