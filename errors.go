package main

import "errors"

var (
	// ErrColumnFull is returned when a move targets a column
	// that already holds six pieces.
	ErrColumnFull = errors.New("column is full")

	// ErrInvalidUndo signals a make/unmake pairing violation: an undo on a
	// column no move was applied to. Strictly a programming bug.
	ErrInvalidUndo = errors.New("no move to undo in column")

	// ErrNoLegalMove is returned by the search when asked to move on a
	// board that is already won or drawn.
	ErrNoLegalMove = errors.New("no legal move: game is over")
)
