package game

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// boardOf builds a board from a 9-character string where '.' is an empty cell.
func boardOf(t *testing.T, cells string) Board {
	t.Helper()
	if len(cells) != 9 {
		t.Fatalf("boardOf requires exactly 9 cells, got %d", len(cells))
	}

	var b Board
	for i, cell := range cells {
		switch cell {
		case '.':
			b[i] = Empty
		case 'X':
			b[i] = X
		case 'O':
			b[i] = O
		default:
			t.Fatalf("unexpected cell %q", cell)
		}
	}
	return b
}

func TestApplyDetectsAllWinningLines(t *testing.T) {
	tests := []struct {
		name     string
		board    string
		symbol   Symbol
		position int
	}{
		{"top row", "XX.......", X, 2},
		{"middle row", "...OO....", O, 5},
		{"bottom row", "......XX.", X, 8},
		{"left column", "X..X.....", X, 6},
		{"middle column", ".O..O....", O, 7},
		{"right column", "..X..X...", X, 8},
		{"main diagonal", "X...X....", X, 8},
		{"anti diagonal", "..O...O..", O, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, outcome, err := boardOf(t, tt.board).Apply(tt.symbol, tt.position)
			if err != nil {
				t.Fatalf("Apply() returned unexpected error: %v", err)
			}
			if outcome != OutcomeWin {
				t.Errorf("Apply() outcome = %v, want OutcomeWin", outcome)
			}
		})
	}
}

func TestApplyNoFalseWins(t *testing.T) {
	tests := []struct {
		name     string
		board    string
		symbol   Symbol
		position int
		want     Outcome
	}{
		{"empty board", ".........", X, 4, OutcomeContinue},
		{"mixed line", "XO.......", X, 2, OutcomeContinue},
		{"two in a line with gap", "X........", X, 1, OutcomeContinue},
		{"opponent line blocked", "OO.......", X, 2, OutcomeContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, outcome, err := boardOf(t, tt.board).Apply(tt.symbol, tt.position)
			if err != nil {
				t.Fatalf("Apply() returned unexpected error: %v", err)
			}
			if outcome != tt.want {
				t.Errorf("Apply() outcome = %v, want %v", outcome, tt.want)
			}
		})
	}
}

func TestApplyRejectsIllegalMoves(t *testing.T) {
	tests := []struct {
		name     string
		board    string
		position int
	}{
		{"below range", ".........", -1},
		{"above range", ".........", 9},
		{"occupied by self", "X........", 0},
		{"occupied by opponent", "O........", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := boardOf(t, tt.board)
			got, _, err := board.Apply(X, tt.position)
			if !errors.Is(err, ErrIllegalMove) {
				t.Fatalf("Apply() error = %v, want ErrIllegalMove", err)
			}
			if diff := cmp.Diff(board, got); diff != "" {
				t.Errorf("rejected move modified the board; diff:\n%s", diff)
			}
		})
	}
}

func TestApplyReportsDrawOnFullBoard(t *testing.T) {
	// Final move completes the board with no line for either symbol.
	//   X O X
	//   X O O
	//   O X X
	_, outcome, err := boardOf(t, "XOXXOOOX.").Apply(X, 8)
	if err != nil {
		t.Fatalf("Apply() returned unexpected error: %v", err)
	}
	if outcome != OutcomeDraw {
		t.Errorf("Apply() outcome = %v, want OutcomeDraw", outcome)
	}
}

func TestApplyWinTakesPrecedenceOverFullBoard(t *testing.T) {
	// The ninth move both fills the board and completes the 0-4-8 diagonal.
	_, outcome, err := boardOf(t, "XOXOXOOX.").Apply(X, 8)
	if err != nil {
		t.Fatalf("Apply() returned unexpected error: %v", err)
	}
	if outcome != OutcomeWin {
		t.Errorf("Apply() outcome = %v, want OutcomeWin", outcome)
	}
}

func TestLeftColumnWinSequence(t *testing.T) {
	// X plays 0, 3, 6 while O plays 1, 4: X wins on the fifth move with the
	// left column and the board frozen mid-game.
	moves := []struct {
		symbol   Symbol
		position int
		want     Outcome
	}{
		{X, 0, OutcomeContinue},
		{O, 1, OutcomeContinue},
		{X, 3, OutcomeContinue},
		{O, 4, OutcomeContinue},
		{X, 6, OutcomeWin},
	}

	board := NewBoard()
	for i, move := range moves {
		var outcome Outcome
		var err error
		board, outcome, err = board.Apply(move.symbol, move.position)
		if err != nil {
			t.Fatalf("move %d: Apply() returned unexpected error: %v", i, err)
		}
		if outcome != move.want {
			t.Fatalf("move %d: outcome = %v, want %v", i, outcome, move.want)
		}
	}

	want := boardOf(t, "XO.XO.X..")
	if diff := cmp.Diff(want, board); diff != "" {
		t.Errorf("final board mismatch; diff:\n%s", diff)
	}
}

func TestDrawSequence(t *testing.T) {
	// A full alternating game with no three-in-a-row for either player.
	moves := []struct {
		symbol   Symbol
		position int
		want     Outcome
	}{
		{X, 0, OutcomeContinue},
		{O, 1, OutcomeContinue},
		{X, 2, OutcomeContinue},
		{O, 4, OutcomeContinue},
		{X, 3, OutcomeContinue},
		{O, 5, OutcomeContinue},
		{X, 7, OutcomeContinue},
		{O, 6, OutcomeContinue},
		{X, 8, OutcomeDraw},
	}

	board := NewBoard()
	for i, move := range moves {
		var outcome Outcome
		var err error
		board, outcome, err = board.Apply(move.symbol, move.position)
		if err != nil {
			t.Fatalf("move %d: Apply() returned unexpected error: %v", i, err)
		}
		if outcome != move.want {
			t.Fatalf("move %d: outcome = %v, want %v", i, outcome, move.want)
		}
	}
}

func TestSymbolOther(t *testing.T) {
	if X.Other() != O {
		t.Errorf("X.Other() = %q, want O", X.Other())
	}
	if O.Other() != X {
		t.Errorf("O.Other() = %q, want X", O.Other())
	}
}
