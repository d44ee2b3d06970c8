package lobby

import (
	"github.com/mbrault/morpion/internal/core/client"
	"github.com/mbrault/morpion/internal/game"
	"github.com/mbrault/morpion/internal/protocol"
)

// send delivers one message to a client. A delivery failure is handled like
// an explicit disconnect: the connection is closed, which ends its read loop
// and runs the Disconnected cleanup path. The failure never propagates to the
// goroutine that happened to be broadcasting.
func (s *Server) send(c *client.Client, message interface{}) {
	if err := c.Send(message); err != nil {
		s.logger.Warnf("[%s] dropping client %s: %v", s.name, c.IPAddr(), err)
		_ = c.Close()
	}
}

func (s *Server) sendError(c *client.Client, message string) {
	s.send(c, &protocol.Error{
		Action:  protocol.ActionError,
		Message: message,
	})
}

// broadcastState serializes one per-participant view of the session and
// delivers each over that participant's connection.
func (s *Server) broadcastState(session *Session) {
	state := session.State()

	for symbol, p := range state.Players {
		participantClient, ok := s.connections.Get(p.ConnectionID)
		if !ok {
			continue
		}

		s.send(participantClient, &protocol.GameState{
			Action:       protocol.ActionGameState,
			GameID:       state.ID,
			Board:        boardCells(state.Board),
			CurrentTurn:  string(state.CurrentTurn),
			GameOver:     state.GameOver,
			Winner:       state.WinnerName,
			IsDraw:       state.IsDraw,
			RematchVotes: state.RematchVotes,
			YourSymbol:   string(symbol),
		})
	}
}

// broadcastQueueUpdate tells every queued participant the current queue
// contents. Participants who disconnected since joining are skipped; their
// entries are pruned by the disconnect path.
func (s *Server) broadcastQueueUpdate() {
	entries := s.queue.Snapshot()

	update := &protocol.QueueUpdate{
		Action:      protocol.ActionQueueUpdate,
		QueueLength: len(entries),
		Players:     make([]protocol.QueuedPlayer, 0, len(entries)),
	}
	for _, entry := range entries {
		update.Players = append(update.Players, protocol.QueuedPlayer{
			Username: entry.Participant.Username,
			JoinTime: entry.JoinTime.Format(timeFormat),
		})
	}

	for _, entry := range entries {
		if queuedClient, ok := s.connections.Get(entry.Participant.ConnectionID); ok {
			s.send(queuedClient, update)
		}
	}
}

func boardCells(board game.Board) []string {
	cells := make([]string, len(board))
	for i, cell := range board {
		cells[i] = string(cell)
	}
	return cells
}
