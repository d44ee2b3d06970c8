// Package protocol defines the closed set of messages exchanged with clients.
// Every message is a JSON object carrying an "action" discriminator; inbound
// data is decoded exactly once, at the connection boundary, into one of the
// variant types below.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Actions sent by clients.
const (
	ActionLogin          = "login"
	ActionJoinQueue      = "join_queue"
	ActionLeaveQueue     = "leave_queue"
	ActionMakeMove       = "make_move"
	ActionChatMessage    = "chat_message"
	ActionRequestRematch = "request_rematch"
	ActionGetStats       = "get_stats"
)

// Actions sent by the server.
const (
	ActionConnection           = "connection"
	ActionLoginSuccess         = "login_success"
	ActionJoinedQueue          = "joined_queue"
	ActionLeftQueue            = "left_queue"
	ActionQueueUpdate          = "queue_update"
	ActionGameStart            = "game_start"
	ActionGameState            = "game_state"
	ActionGameOver             = "game_over"
	ActionOpponentDisconnected = "opponent_disconnected"
	ActionRematchAccepted      = "rematch_accepted"
	ActionMessageSent          = "message_sent"
	ActionStats                = "stats"
	ActionError                = "error"
)

// ErrMalformed indicates a message that could not be decoded at all.
var ErrMalformed = errors.New("invalid message format")

// UnknownActionError indicates a structurally valid message whose action is
// not part of the protocol.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// Messages sent by clients.
type (
	// Login resolves (or creates) the player identity for the connection.
	Login struct {
		Username string `json:"username"`
	}

	// JoinQueue enters the sender into the matchmaking queue.
	JoinQueue struct{}

	// LeaveQueue removes the sender from the matchmaking queue.
	LeaveQueue struct{}

	// MakeMove submits a move at Position for the sender's current game.
	// Position is a pointer so that an omitted field can be rejected.
	MakeMove struct {
		Position *int `json:"position"`
	}

	// ChatMessage relays an opaque message to the sender's opponent.
	ChatMessage struct {
		Message string `json:"message"`
	}

	// RequestRematch casts the sender's rematch vote for a finished game.
	RequestRematch struct{}

	// GetStats requests the sender's win/loss record.
	GetStats struct{}
)

type envelope struct {
	Action string `json:"action"`
}

// Decode parses one inbound message and returns a pointer to the variant
// struct corresponding to its action. Undecodable data returns an error
// wrapping ErrMalformed; an unrecognized action returns *UnknownActionError.
func Decode(data []byte) (interface{}, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var message interface{}
	switch env.Action {
	case ActionLogin:
		message = &Login{}
	case ActionJoinQueue:
		message = &JoinQueue{}
	case ActionLeaveQueue:
		message = &LeaveQueue{}
	case ActionMakeMove:
		message = &MakeMove{}
	case ActionChatMessage:
		message = &ChatMessage{}
	case ActionRequestRematch:
		message = &RequestRematch{}
	case ActionGetStats:
		message = &GetStats{}
	default:
		return nil, &UnknownActionError{Action: env.Action}
	}

	if err := json.Unmarshal(data, message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return message, nil
}

// Messages sent by the server. The Action field of each must be set to the
// corresponding constant before sending.
type (
	// Connection carries the server-assigned connection id, sent immediately
	// after the connection is accepted.
	Connection struct {
		Action   string `json:"action"`
		ClientID string `json:"client_id"`
	}

	// LoginSuccess confirms identity resolution.
	LoginSuccess struct {
		Action   string `json:"action"`
		PlayerID uint   `json:"player_id"`
	}

	// JoinedQueue confirms queue entry to the joining player.
	JoinedQueue struct {
		Action      string `json:"action"`
		Position    int    `json:"position"`
		QueueLength int    `json:"queue_length"`
		JoinTime    string `json:"join_time"`
	}

	// LeftQueue confirms queue departure.
	LeftQueue struct {
		Action string `json:"action"`
	}

	// QueueUpdate is broadcast to every queued player when queue membership changes.
	QueueUpdate struct {
		Action      string         `json:"action"`
		QueueLength int            `json:"queue_length"`
		Players     []QueuedPlayer `json:"players"`
	}

	// QueuedPlayer is one entry of a QueueUpdate.
	QueuedPlayer struct {
		Username string `json:"username"`
		JoinTime string `json:"join_time"`
	}

	// GameStart tells a player they have been paired.
	GameStart struct {
		Action   string `json:"action"`
		GameID   string `json:"game_id"`
		Opponent string `json:"opponent"`
		Symbol   string `json:"symbol"`
		YourTurn bool   `json:"your_turn"`
	}

	// GameState is the per-player view of a game, broadcast after every
	// accepted move, rematch vote, and rematch reset.
	GameState struct {
		Action       string   `json:"action"`
		GameID       string   `json:"game_id"`
		Board        []string `json:"board"`
		CurrentTurn  string   `json:"current_turn"`
		GameOver     bool     `json:"game_over"`
		Winner       string   `json:"winner,omitempty"`
		IsDraw       bool     `json:"is_draw"`
		RematchVotes []string `json:"rematch_votes"`
		YourSymbol   string   `json:"your_symbol"`
	}

	// GameOver announces a terminal result alongside the final GameState.
	GameOver struct {
		Action  string `json:"action"`
		Winner  string `json:"winner,omitempty"`
		Message string `json:"message"`
	}

	// OpponentDisconnected tells the surviving player their game was torn down.
	OpponentDisconnected struct {
		Action string `json:"action"`
	}

	// RematchAccepted announces a rematch reset and the recipient's new symbol.
	RematchAccepted struct {
		Action string `json:"action"`
		Symbol string `json:"symbol"`
	}

	// ChatRelay delivers an opponent's chat message.
	ChatRelay struct {
		Action  string `json:"action"`
		From    string `json:"from"`
		Message string `json:"message"`
		Time    string `json:"time"`
	}

	// MessageSent acknowledges a relayed chat message to its sender.
	MessageSent struct {
		Action string `json:"action"`
	}

	// Stats carries a player's win/loss record.
	Stats struct {
		Action     string `json:"action"`
		TotalGames int64  `json:"total_games"`
		Wins       int64  `json:"wins"`
		Losses     int64  `json:"losses"`
	}

	// Error reports a rejected or undecodable message without closing the
	// connection.
	Error struct {
		Action  string `json:"action"`
		Message string `json:"message"`
	}
)
