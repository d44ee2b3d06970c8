// Package game implements the board rules: applying moves, detecting wins and
// draws. It performs no I/O and holds no state between calls; turn order is
// the caller's responsibility.
package game

import "errors"

// ErrIllegalMove is returned when a move targets a cell outside the board or
// one that is already marked.
var ErrIllegalMove = errors.New("illegal move")

// Symbol is the mark owned by one of the two players. The zero-value cell is
// represented by a single space to match the wire format.
type Symbol string

const (
	Empty Symbol = " "
	X     Symbol = "X"
	O     Symbol = "O"
)

// Other returns the opposing player's symbol.
func (s Symbol) Other() Symbol {
	if s == X {
		return O
	}
	return X
}

// Board is the 3x3 grid in row-major order.
type Board [9]Symbol

// NewBoard returns a board with all cells empty.
func NewBoard() Board {
	var b Board
	for i := range b {
		b[i] = Empty
	}
	return b
}

// Outcome describes the result of applying a move.
type Outcome int

const (
	// OutcomeContinue means the game is still in progress.
	OutcomeContinue Outcome = iota
	// OutcomeWin means the applied move completed a line for its symbol.
	OutcomeWin
	// OutcomeDraw means the board is full with no winning line.
	OutcomeDraw
)

// The 8 winning lines: 3 rows, 3 columns, 2 diagonals.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Apply marks position with symbol and reports the resulting outcome. The
// receiver is unmodified; the updated board is returned. Moves outside [0,8]
// or onto a marked cell return ErrIllegalMove.
func (b Board) Apply(symbol Symbol, position int) (Board, Outcome, error) {
	if position < 0 || position > 8 || b[position] != Empty {
		return b, OutcomeContinue, ErrIllegalMove
	}

	b[position] = symbol

	if b.winner() != Empty {
		return b, OutcomeWin, nil
	}
	if b.full() {
		return b, OutcomeDraw, nil
	}
	return b, OutcomeContinue, nil
}

// winner returns the symbol owning a completed line, or Empty if there is none.
func (b Board) winner() Symbol {
	for _, line := range winningLines {
		if b[line[0]] != Empty && b[line[0]] == b[line[1]] && b[line[1]] == b[line[2]] {
			return b[line[0]]
		}
	}
	return Empty
}

func (b Board) full() bool {
	for _, cell := range b {
		if cell == Empty {
			return false
		}
	}
	return true
}
