package main

import (
	"errors"
	"math/rand"
	"testing"
)

func mustParse(t *testing.T, sequence string) Board {
	t.Helper()
	b, err := ParseMoves(sequence)
	if err != nil {
		t.Fatalf("parse %q: %v", sequence, err)
	}
	return b
}

func TestApplyMoveFillsBottomUpAndFlipsTurn(t *testing.T) {
	b := NewBoard()
	if b.ToMove() != PlayerRed {
		t.Fatalf("red moves first on an empty board")
	}
	for i := 0; i < numRows; i++ {
		if err := b.ApplyMove(3); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}
	if !b.IsFull(3) {
		t.Fatalf("column 3 should be full after six pieces")
	}
	if b.MoveCount() != numRows {
		t.Fatalf("move count = %d, want %d", b.MoveCount(), numRows)
	}
	if b.ToMove() != PlayerRed {
		t.Fatalf("after six moves it is red's turn again")
	}
	err := b.ApplyMove(3)
	if !errors.Is(err, ErrColumnFull) {
		t.Fatalf("apply on full column: got %v, want ErrColumnFull", err)
	}
}

func TestApplyOutOfRangeColumn(t *testing.T) {
	b := NewBoard()
	if err := b.ApplyMove(Move(7)); !errors.Is(err, ErrColumnFull) {
		t.Fatalf("expected error for column 7, got %v", err)
	}
	if err := b.ApplyMove(NoMove); !errors.Is(err, ErrColumnFull) {
		t.Fatalf("expected error for column -1, got %v", err)
	}
}

func TestUndoRestoresBitIdenticalState(t *testing.T) {
	b := mustParse(t, "3352210")
	before := b
	if err := b.ApplyMove(6); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if b == before {
		t.Fatalf("apply must change the board")
	}
	if err := b.UndoMove(6); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if b != before {
		t.Fatalf("apply+undo must restore the exact prior state:\n%v\nvs\n%v", b, before)
	}
}

func TestUndoEmptyColumnFails(t *testing.T) {
	b := mustParse(t, "334")
	err := b.UndoMove(0)
	if !errors.Is(err, ErrInvalidUndo) {
		t.Fatalf("undo on untouched column: got %v, want ErrInvalidUndo", err)
	}
}

func TestCheckWinAllDirections(t *testing.T) {
	cases := []struct {
		name     string
		sequence string
		winner   Player
	}{
		{"horizontal", "3041526", PlayerRed},                // red on 3,4,5,6 bottom row
		{"vertical", "3434343", PlayerRed},                  // red stacks column 3
		{"diagonal up", "01123223353", PlayerRed},           // staircase / from (0,0) to (3,3)
		{"diagonal down", "65543443313", PlayerRed},         // staircase \ from (3,3) to (6,0)
		{"yellow horizontal", "50616263", PlayerYellow},     // yellow on 0,1,2,3 bottom row
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			b, err := ParseMoves(tc.sequence)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !b.CheckWin(tc.winner) {
				t.Fatalf("expected %v win after %q:\n%s", tc.winner, tc.sequence, b.String())
			}
			if b.CheckWin(otherPlayer(tc.winner)) {
				t.Fatalf("both players cannot have won")
			}
		})
	}
}

func TestNoSimultaneousWinOnRandomPlayouts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for game := 0; game < 200; game++ {
		b := NewBoard()
		for !b.IsTerminal() {
			legal := b.LegalMoves()
			if err := b.ApplyMove(legal[rng.Intn(len(legal))]); err != nil {
				t.Fatalf("apply: %v", err)
			}
			if b.CheckWin(PlayerRed) && b.CheckWin(PlayerYellow) {
				t.Fatalf("both players report a win:\n%s", b.String())
			}
		}
	}
}

func TestDrawRequiresFullBoardWithoutWin(t *testing.T) {
	b := mustParse(t, "33")
	if b.IsDraw() {
		t.Fatalf("partially filled board is not a draw")
	}
	// A known full board with no alignment: columns filled in a pattern
	// that alternates pairs, leaving no four in a row for either side.
	full := fillWithoutWin(t)
	if !full.IsDraw() {
		t.Fatalf("expected a draw:\n%s", full.String())
	}
	if !full.IsTerminal() {
		t.Fatalf("draw boards are terminal")
	}
	if len(full.LegalMoves()) != 0 {
		t.Fatalf("full board has no legal moves")
	}
}

// fillWithoutWin builds a drawn board via seeded random playouts,
// restarting until a playout ends with a full board.
func fillWithoutWin(t *testing.T) Board {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	for attempt := 0; attempt < 10000; attempt++ {
		b := NewBoard()
		for !b.IsTerminal() {
			legal := b.LegalMoves()
			// Prefer moves that do not end the game so playouts reach a draw.
			played := false
			rng.Shuffle(len(legal), func(i, j int) { legal[i], legal[j] = legal[j], legal[i] })
			for _, col := range legal {
				if err := b.ApplyMove(col); err != nil {
					t.Fatalf("apply: %v", err)
				}
				if b.CheckWin(PlayerRed) || b.CheckWin(PlayerYellow) {
					if err := b.UndoMove(col); err != nil {
						t.Fatalf("undo: %v", err)
					}
					continue
				}
				played = true
				break
			}
			if !played {
				break // every move wins; restart the playout
			}
		}
		if b.IsDraw() {
			return b
		}
	}
	t.Fatalf("could not build a drawn board")
	return Board{}
}

func TestLegalMovesCenterOutOrder(t *testing.T) {
	b := NewBoard()
	got := b.LegalMoves()
	want := []Move{3, 2, 4, 1, 5, 0, 6}
	if len(got) != len(want) {
		t.Fatalf("legal moves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("legal moves = %v, want %v", got, want)
		}
	}

	for i := 0; i < numRows; i++ {
		if err := b.ApplyMove(3); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	got = b.LegalMoves()
	for _, col := range got {
		if col == 3 {
			t.Fatalf("full column 3 must not be generated: %v", got)
		}
	}
	if len(got) != numCols-1 {
		t.Fatalf("expected %d legal moves, got %v", numCols-1, got)
	}
}

func TestMirrorKeyCanonicalization(t *testing.T) {
	b := mustParse(t, "0012")
	mirrored := b.Mirror()
	if b == mirrored {
		t.Fatalf("asymmetric board should differ from its mirror")
	}
	if b.Key() != mirrored.Key() {
		t.Fatalf("board and mirror must share a canonical key: %d vs %d", b.Key(), mirrored.Key())
	}
	if b.Mirror().Mirror() != b {
		t.Fatalf("mirroring twice must round-trip")
	}

	symmetric := mustParse(t, "33")
	if symmetric.Mirror() != symmetric {
		t.Fatalf("center-column board is its own mirror")
	}
}

func TestKeysDistinguishPositions(t *testing.T) {
	seen := map[uint64]string{}
	sequences := []string{"", "3", "33", "34", "43", "0", "6", "03", "000", "012345", "554"}
	for _, seq := range sequences {
		b := mustParse(t, seq)
		key := b.Key()
		// "34" and "43" transpose to different positions here (different
		// owners), while "0" and "6" are mirrors and must collide.
		if prev, ok := seen[key]; ok {
			pb := mustParse(t, prev)
			if pb.Mirror() != b && pb != b {
				t.Fatalf("key collision between %q and %q", prev, seq)
			}
			continue
		}
		seen[key] = seq
	}
	if mustParse(t, "0").Key() != mustParse(t, "6").Key() {
		t.Fatalf("mirrored openings must share a key")
	}
}

func TestParseMovesRejectsBadInput(t *testing.T) {
	if _, err := ParseMoves("37"); err == nil {
		t.Fatalf("expected error for column 7")
	}
	if _, err := ParseMoves("3333333"); !errors.Is(err, ErrColumnFull) {
		t.Fatalf("expected ErrColumnFull for overfilled column")
	}
	if _, err := ParseMoves("3a"); err == nil {
		t.Fatalf("expected error for non-digit input")
	}
}
