package main

import "math/bits"

const (
	winScore = 1_000_000
	infScore = 2_000_000

	// Scores above this are win-in-N scores and carry a ply distance.
	winThreshold = winScore - 100
)

// windowMasks holds one bitmask per four-cell window on the board:
// 24 horizontal, 21 vertical, 12 + 12 diagonal.
var windowMasks = buildWindowMasks()

func buildWindowMasks() []uint64 {
	masks := make([]uint64, 0, 69)
	bit := func(col, row int) uint64 {
		return uint64(1) << (col*colStride + row)
	}
	// Horizontal.
	for row := 0; row < numRows; row++ {
		for col := 0; col+3 < numCols; col++ {
			var m uint64
			for i := 0; i < 4; i++ {
				m |= bit(col+i, row)
			}
			masks = append(masks, m)
		}
	}
	// Vertical.
	for col := 0; col < numCols; col++ {
		for row := 0; row+3 < numRows; row++ {
			var m uint64
			for i := 0; i < 4; i++ {
				m |= bit(col, row+i)
			}
			masks = append(masks, m)
		}
	}
	// Diagonal / and \.
	for col := 0; col+3 < numCols; col++ {
		for row := 0; row+3 < numRows; row++ {
			var up, down uint64
			for i := 0; i < 4; i++ {
				up |= bit(col+i, row+i)
				down |= bit(col+i, row+3-i)
			}
			masks = append(masks, up, down)
		}
	}
	return masks
}

// Evaluate scores a non-terminal position for the side to move. Each open
// four-cell window (pieces of a single player plus empties) counts toward
// that player with a weight by piece count, and center-column occupancy
// adds a bonus. Both players are scored with the same weights and
// subtracted, so the result negates when the perspective flips.
func Evaluate(b *Board, weights HeuristicConfig) int {
	mine := b.player
	theirs := b.player ^ b.mask

	score := 0
	for _, w := range windowMasks {
		m := bits.OnesCount64(mine & w)
		t := bits.OnesCount64(theirs & w)
		if m > 0 && t > 0 {
			continue // blocked window, worthless to both
		}
		switch {
		case m == 3:
			score += weights.ThreeInWindow
		case m == 2:
			score += weights.TwoInWindow
		case t == 3:
			score -= weights.ThreeInWindow
		case t == 2:
			score -= weights.TwoInWindow
		}
	}

	center := columnMask(numCols / 2)
	score += weights.CenterColumn * (bits.OnesCount64(mine&center) - bits.OnesCount64(theirs&center))
	return score
}

// EvaluateFor scores the position from an explicit player's perspective.
func EvaluateFor(b *Board, p Player, weights HeuristicConfig) int {
	score := Evaluate(b, weights)
	if p != b.ToMove() {
		return -score
	}
	return score
}
