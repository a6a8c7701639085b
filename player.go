package main

type IPlayer interface {
	Name() string
	ChooseMove(b Board) (Move, error)
}
