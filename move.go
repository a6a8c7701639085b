package main

import "fmt"

// Move is a column index in [0,6].
type Move int8

// NoMove marks the absence of a move, e.g. when the board is terminal.
const NoMove Move = -1

// moveOrder is the fixed center-out column ordering used by LegalMoves.
var moveOrder = [numCols]Move{3, 2, 4, 1, 5, 0, 6}

func (m Move) IsValid() bool {
	return m >= 0 && m < numCols
}

// mirrored returns the column reflected across the center column.
func (m Move) mirrored() Move {
	if !m.IsValid() {
		return m
	}
	return numCols - 1 - m
}

func (m Move) String() string {
	if m == NoMove {
		return "none"
	}
	return fmt.Sprintf("col %d", int(m))
}
