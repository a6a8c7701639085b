package main

import (
	"fmt"
	"strings"
)

const (
	numCols   = 7
	numRows   = 6
	numCells  = numCols * numRows
	colStride = numRows + 1
)

type Player uint8

const (
	PlayerRed Player = iota
	PlayerYellow
)

func (p Player) String() string {
	if p == PlayerRed {
		return "Red"
	}
	return "Yellow"
}

func otherPlayer(p Player) Player {
	if p == PlayerRed {
		return PlayerYellow
	}
	return PlayerRed
}

// Board packs the position into two bitboards laid out column-major with a
// spare bit on top of each column:
//
//	 6 13 20 27 34 41 48
//	-----------------------
//	 5 12 19 26 33 40 47
//	 4 11 18 25 32 39 46
//	 3 10 17 24 31 38 45
//	 2  9 16 23 30 37 44
//	 1  8 15 22 29 36 43
//	 0  7 14 21 28 35 42
//
// player holds the side to move's pieces, mask all occupied cells. The spare
// row keeps column arithmetic from overflowing into the neighbour column.
// Whose turn it is follows from move count parity alone.
type Board struct {
	player uint64
	mask   uint64
	moves  int
}

func NewBoard() Board {
	return Board{}
}

func bottomMaskCol(col Move) uint64 {
	return uint64(1) << (int(col) * colStride)
}

func topMaskCol(col Move) uint64 {
	return uint64(1) << (numRows - 1 + int(col)*colStride)
}

func columnMask(col Move) uint64 {
	return ((uint64(1) << numRows) - 1) << (int(col) * colStride)
}

func (b Board) MoveCount() int {
	return b.moves
}

func (b Board) ToMove() Player {
	if b.moves%2 == 0 {
		return PlayerRed
	}
	return PlayerYellow
}

func (b Board) IsFull(col Move) bool {
	return b.mask&topMaskCol(col) != 0
}

// pieces returns the bitboard of the given player, independent of whose
// turn it is.
func (b Board) pieces(p Player) uint64 {
	if p == b.ToMove() {
		return b.player
	}
	return b.player ^ b.mask
}

// ApplyMove drops the current player's piece into col and flips the turn.
func (b *Board) ApplyMove(col Move) error {
	if !col.IsValid() {
		return fmt.Errorf("apply column %d: %w", col, ErrColumnFull)
	}
	if b.IsFull(col) {
		return fmt.Errorf("apply column %d: %w", col, ErrColumnFull)
	}
	b.player ^= b.mask
	b.mask |= b.mask + bottomMaskCol(col)
	b.moves++
	return nil
}

// UndoMove removes the top piece of col, reversing the most recent
// ApplyMove on that column. The caller pairs undos with applies in reverse
// order; undoing an empty column is an invariant breach.
func (b *Board) UndoMove(col Move) error {
	if !col.IsValid() {
		return fmt.Errorf("undo column %d: %w", col, ErrInvalidUndo)
	}
	colBits := b.mask & columnMask(col)
	if colBits == 0 {
		return fmt.Errorf("undo column %d: %w", col, ErrInvalidUndo)
	}
	// The column's bits form a contiguous run from the bottom, so adding
	// one bottom bit carries into the cell just above the run.
	topBit := (colBits + bottomMaskCol(col)) >> 1 & columnMask(col)
	b.mask ^= topBit
	b.player ^= b.mask
	b.moves--
	return nil
}

// CheckWin reports whether p has four contiguous pieces in any direction.
func (b Board) CheckWin(p Player) bool {
	return hasAlignment(b.pieces(p))
}

func hasAlignment(pieces uint64) bool {
	// shift distances: vertical, diagonal /, horizontal, diagonal \
	for _, shift := range [4]int{1, numRows, colStride, numRows + 2} {
		m := pieces & (pieces >> shift)
		if m&(m>>(2*shift)) != 0 {
			return true
		}
	}
	return false
}

func (b Board) IsDraw() bool {
	return b.moves == numCells && !b.CheckWin(PlayerRed) && !b.CheckWin(PlayerYellow)
}

func (b Board) IsTerminal() bool {
	return b.moves == numCells || b.CheckWin(PlayerRed) || b.CheckWin(PlayerYellow)
}

// LegalMoves returns the playable columns center-out (3,2,4,1,5,0,6).
// Central columns participate in more four-cell windows, so trying them
// first tightens the alpha-beta window early.
func (b Board) LegalMoves() []Move {
	moves := make([]Move, 0, numCols)
	for _, col := range moveOrder {
		if !b.IsFull(col) {
			moves = append(moves, col)
		}
	}
	return moves
}

// Key returns the canonical transposition key: the smaller of the
// position's key and its left-right mirror's. Connect 4 is symmetric, so
// hashing both orientations to one slot doubles the effective cache.
func (b Board) Key() uint64 {
	key, _ := b.keyAndMirror()
	return key
}

// keyAndMirror also reports whether the canonical orientation is the
// mirrored one, so cached best moves can be reflected back.
func (b Board) keyAndMirror() (uint64, bool) {
	key := b.player + b.mask
	mp, mm := b.mirroredBitboards()
	mirroredKey := mp + mm
	if mirroredKey < key {
		return mirroredKey, true
	}
	return key, false
}

func (b Board) mirroredBitboards() (uint64, uint64) {
	var player, mask uint64
	for col := Move(0); col < numCols/2; col++ {
		mirrored := numCols - 1 - col
		shift := int(mirrored-col) * colStride
		player |= (b.player & columnMask(col)) << shift
		player |= (b.player & columnMask(mirrored)) >> shift
		mask |= (b.mask & columnMask(col)) << shift
		mask |= (b.mask & columnMask(mirrored)) >> shift
	}
	center := Move(numCols / 2)
	player |= b.player & columnMask(center)
	mask |= b.mask & columnMask(center)
	return player, mask
}

// Mirror returns the left-right reflection of the board.
func (b Board) Mirror() Board {
	player, mask := b.mirroredBitboards()
	return Board{player: player, mask: mask, moves: b.moves}
}

func (b Board) cellAt(col Move, row int) (Player, bool) {
	bit := uint64(1) << (int(col)*colStride + row)
	if b.mask&bit == 0 {
		return PlayerRed, false
	}
	if b.pieces(PlayerRed)&bit != 0 {
		return PlayerRed, true
	}
	return PlayerYellow, true
}

func (b Board) String() string {
	var sb strings.Builder
	for row := numRows - 1; row >= 0; row-- {
		for col := Move(0); col < numCols; col++ {
			if col > 0 {
				sb.WriteByte(' ')
			}
			p, occupied := b.cellAt(col, row)
			switch {
			case !occupied:
				sb.WriteByte('.')
			case p == PlayerRed:
				sb.WriteByte('X')
			default:
				sb.WriteByte('O')
			}
		}
		sb.WriteByte('\n')
	}
	for col := 0; col < numCols; col++ {
		if col > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(byte('0' + col))
	}
	return sb.String()
}

// ParseMoves replays a sequence of column digits ("334455") from an empty
// board.
func ParseMoves(sequence string) (Board, error) {
	b := NewBoard()
	for i, c := range sequence {
		if c < '0' || c > '6' {
			return Board{}, fmt.Errorf("position char %q at index %d: column must be in [0,6]", c, i)
		}
		if err := b.ApplyMove(Move(c - '0')); err != nil {
			return Board{}, fmt.Errorf("position index %d: %w", i, err)
		}
	}
	return b, nil
}
