package lobby

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mbrault/morpion/internal/game"
)

var (
	// ErrNotYourTurn is returned when a player moves out of turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrGameOver is returned for moves submitted after a terminal state.
	ErrGameOver = errors.New("game is already over")
	// ErrGameNotOver is returned for rematch votes before a terminal state.
	ErrGameNotOver = errors.New("game is not over")
)

// Participant identifies one player of a session: the connection they hold
// and the persistent identity resolved at login.
type Participant struct {
	ConnectionID string
	PlayerID     uint
	Username     string
}

// MoveResult reports the session-level consequences of an accepted move.
type MoveResult struct {
	GameOver  bool
	IsDraw    bool
	Winner    *Participant
	MoveCount int
}

// Snapshot is a consistent copy of a session's state, taken under the session
// lock, for the broadcast dispatcher to serialize per participant.
type Snapshot struct {
	ID           string
	Players      map[game.Symbol]Participant
	Board        game.Board
	CurrentTurn  game.Symbol
	GameOver     bool
	WinnerName   string
	IsDraw       bool
	RematchVotes []string
}

// Session owns one board and all state for a single match between exactly two
// participants. All mutation is serialized by the session mutex so that moves
// arriving concurrently from both connections apply in a strict order.
type Session struct {
	ID string

	mu           sync.Mutex
	players      map[game.Symbol]Participant
	board        game.Board
	currentTurn  game.Symbol
	moveCount    int
	gameOver     bool
	winner       game.Symbol
	isDraw       bool
	rematchVotes map[string]struct{}
}

// NewSession pairs two participants. The first participant is assigned X and
// moves first.
func NewSession(first, second Participant) *Session {
	return &Session{
		ID: uuid.New().String(),
		players: map[game.Symbol]Participant{
			game.X: first,
			game.O: second,
		},
		board:        game.NewBoard(),
		currentTurn:  game.X,
		winner:       game.Empty,
		rematchVotes: make(map[string]struct{}),
	}
}

// SymbolOf returns the symbol assigned to the given connection.
func (s *Session) SymbolOf(connectionID string) (game.Symbol, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbolOf(connectionID)
}

func (s *Session) symbolOf(connectionID string) (game.Symbol, bool) {
	for symbol, p := range s.players {
		if p.ConnectionID == connectionID {
			return symbol, true
		}
	}
	return game.Empty, false
}

// Opponent returns the other participant of the session.
func (s *Session) Opponent(connectionID string) (Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.players {
		if p.ConnectionID != connectionID {
			return p, true
		}
	}
	return Participant{}, false
}

// Participants returns both participants in current symbol order (X first).
func (s *Session) Participants() [2]Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return [2]Participant{s.players[game.X], s.players[game.O]}
}

// SubmitMove validates and applies one move for the participant holding
// connectionID. The turn flips on acceptance unless the move produced a
// terminal outcome, in which case the winner or draw is recorded and the
// session stops accepting moves until a rematch reset.
func (s *Session) SubmitMove(connectionID string, position int) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gameOver {
		return MoveResult{}, ErrGameOver
	}

	symbol, ok := s.symbolOf(connectionID)
	if !ok || symbol != s.currentTurn {
		return MoveResult{}, ErrNotYourTurn
	}

	board, outcome, err := s.board.Apply(symbol, position)
	if err != nil {
		return MoveResult{}, err
	}

	s.board = board
	s.moveCount++

	switch outcome {
	case game.OutcomeWin:
		s.gameOver = true
		s.winner = symbol
	case game.OutcomeDraw:
		s.gameOver = true
		s.isDraw = true
	default:
		s.currentTurn = symbol.Other()
	}

	result := MoveResult{
		GameOver:  s.gameOver,
		IsDraw:    s.isDraw,
		MoveCount: s.moveCount,
	}
	if s.winner != game.Empty {
		winner := s.players[s.winner]
		result.Winner = &winner
	}
	return result, nil
}

// RequestRematch records a rematch vote for the participant holding
// connectionID. Voting is only valid once the game is over. When both
// participants have voted the board resets, the symbol assignments swap, and
// play returns to X; reset reports whether that happened on this vote.
func (s *Session) RequestRematch(connectionID string) (reset bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.gameOver {
		return false, ErrGameNotOver
	}
	if _, ok := s.symbolOf(connectionID); !ok {
		return false, ErrNotYourTurn
	}

	s.rematchVotes[connectionID] = struct{}{}
	if len(s.rematchVotes) < len(s.players) {
		return false, nil
	}

	s.board = game.NewBoard()
	s.players[game.X], s.players[game.O] = s.players[game.O], s.players[game.X]
	s.currentTurn = game.X
	s.moveCount = 0
	s.gameOver = false
	s.winner = game.Empty
	s.isDraw = false
	s.rematchVotes = make(map[string]struct{})
	return true, nil
}

// State returns a consistent snapshot of the session.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	players := make(map[game.Symbol]Participant, len(s.players))
	for symbol, p := range s.players {
		players[symbol] = p
	}

	votes := make([]string, 0, len(s.rematchVotes))
	for id := range s.rematchVotes {
		votes = append(votes, id)
	}

	winnerName := ""
	if s.winner != game.Empty {
		winnerName = s.players[s.winner].Username
	}

	return Snapshot{
		ID:           s.ID,
		Players:      players,
		Board:        s.board,
		CurrentTurn:  s.currentTurn,
		GameOver:     s.gameOver,
		WinnerName:   winnerName,
		IsDraw:       s.isDraw,
		RematchVotes: votes,
	}
}
