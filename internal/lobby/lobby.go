// Package lobby implements the session lifecycle engine: the matchmaking
// queue, the connection and session registries, the per-session turn state
// machine, and the command processor that routes decoded protocol messages
// between them.
package lobby

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mbrault/morpion/internal/core"
	"github.com/mbrault/morpion/internal/core/client"
	"github.com/mbrault/morpion/internal/game"
	"github.com/mbrault/morpion/internal/protocol"
	"github.com/mbrault/morpion/internal/stats"
)

const timeFormat = "15:04:05"

// titleCaser formats internal error text sent in client-facing error messages.
var titleCaser = cases.Title(language.English)

// Server is the GAME server implementation. Clients connect to it directly;
// it pairs queued players into sessions, arbitrates their moves, and relays
// chat and rematch negotiation between them.
type Server struct {
	name   string
	config *core.Config
	logger *logrus.Logger
	stats  *stats.Service

	connections *ConnectionRegistry
	sessions    *SessionRegistry
	queue       *Queue

	// membership serializes every transition between the queue and the
	// session registry so that a participant id is never in both at once.
	membership sync.Mutex
}

func NewServer(name string, config *core.Config, logger *logrus.Logger, statsService *stats.Service) *Server {
	return &Server{
		name:        name,
		config:      config,
		logger:      logger,
		stats:       statsService,
		connections: NewConnectionRegistry(),
		sessions:    NewSessionRegistry(),
		queue:       NewQueue(),
	}
}

func (s *Server) Identifier() string {
	return s.name
}

// Init starts the background matchmaking goroutine, which re-evaluates the
// queue periodically in addition to the passes triggered by queue changes.
func (s *Server) Init(ctx context.Context) error {
	go s.matchmakingLoop(ctx)
	return nil
}

// Handshake assigns the connection its id, sends the connection message, and
// registers it. Registration only happens after a successful send so that a
// connection that dies during the handshake never enters the registry.
func (s *Server) Handshake(c *client.Client) error {
	c.ID = uuid.New().String()

	err := c.Send(&protocol.Connection{
		Action:   protocol.ActionConnection,
		ClientID: c.ID,
	})
	if err != nil {
		return err
	}

	s.connections.Register(c)
	return nil
}

// Handle decodes one inbound message and routes it to the matching handler.
// Malformed or unknown messages produce an error response without
// terminating the connection.
func (s *Server) Handle(ctx context.Context, c *client.Client, data []byte) error {
	message, err := protocol.Decode(data)
	if err != nil {
		var unknown *protocol.UnknownActionError
		switch {
		case errors.Is(err, protocol.ErrMalformed):
			s.sendError(c, "Invalid JSON format")
		case errors.As(err, &unknown):
			s.sendError(c, "Unknown action: "+unknown.Action)
		default:
			return err
		}
		return nil
	}

	// Login is the only action permitted before an identity is resolved.
	if _, ok := message.(*protocol.Login); !ok && !c.LoggedIn() {
		s.sendError(c, "Login required")
		return nil
	}

	switch msg := message.(type) {
	case *protocol.Login:
		s.handleLogin(c, msg)
	case *protocol.JoinQueue:
		s.handleJoinQueue(c)
	case *protocol.LeaveQueue:
		s.handleLeaveQueue(c)
	case *protocol.MakeMove:
		s.handleMakeMove(c, msg)
	case *protocol.ChatMessage:
		s.handleChatMessage(c, msg)
	case *protocol.RequestRematch:
		s.handleRequestRematch(c)
	case *protocol.GetStats:
		s.handleGetStats(c)
	}
	return nil
}

// Disconnected is the cleanup path for a connection whose read loop has
// ended, whether by peer close, read failure, or a failed send. It runs at
// most once per connection.
func (s *Server) Disconnected(c *client.Client) {
	if !s.connections.Deregister(c.ID) {
		return
	}

	s.lockMembership()
	removedFromQueue := s.queue.Dequeue(c.ID) == nil
	session, inSession := s.sessions.Lookup(c.ID)
	s.unlockMembership()

	if removedFromQueue {
		s.broadcastQueueUpdate()
	}

	if inSession && s.sessions.Remove(session) {
		s.returnOpponentToQueue(session, c.ID)
	}
}

// returnOpponentToQueue notifies the surviving participant that their game
// was torn down and, if they are still connected, puts them back at the head
// of the matchmaking queue; they already waited their turn once.
func (s *Server) returnOpponentToQueue(session *Session, disconnectedID string) {
	opponent, ok := session.Opponent(disconnectedID)
	if !ok {
		return
	}

	opponentClient, live := s.connections.Get(opponent.ConnectionID)
	if !live {
		return
	}

	s.logger.Infof("[%s] game %s torn down, returning %s to queue",
		s.name, session.ID, opponent.Username)
	s.send(opponentClient, &protocol.OpponentDisconnected{
		Action: protocol.ActionOpponentDisconnected,
	})

	s.lockMembership()
	s.queue.PushFront(QueueEntry{Participant: opponent, JoinTime: time.Now()})
	s.unlockMembership()

	s.broadcastQueueUpdate()
	s.tryMatch()
}

func (s *Server) handleLogin(c *client.Client, msg *protocol.Login) {
	if msg.Username == "" {
		s.sendError(c, "No username provided")
		return
	}
	if c.LoggedIn() {
		s.sendError(c, "Already logged in")
		return
	}

	player, err := s.stats.ResolveOrCreate(msg.Username)
	if err != nil {
		s.logger.Errorf("[%s] login failed for %q: %v", s.name, msg.Username, err)
		s.sendError(c, titleCaser.String(err.Error()))
		return
	}

	c.Player = player
	s.logger.Infof("[%s] %s logged in as %q (player %d)", s.name, c.IPAddr(), player.Username, player.ID)
	s.send(c, &protocol.LoginSuccess{
		Action:   protocol.ActionLoginSuccess,
		PlayerID: player.ID,
	})
}

func (s *Server) handleJoinQueue(c *client.Client) {
	s.lockMembership()
	if _, inGame := s.sessions.Lookup(c.ID); inGame {
		s.unlockMembership()
		s.sendError(c, "Already in game")
		return
	}
	position, joined, err := s.queue.Enqueue(s.participant(c))
	s.unlockMembership()

	if err != nil {
		s.sendError(c, "Already in queue")
		return
	}

	s.send(c, &protocol.JoinedQueue{
		Action:      protocol.ActionJoinedQueue,
		Position:    position,
		QueueLength: s.queue.Len(),
		JoinTime:    joined.Format(timeFormat),
	})
	s.broadcastQueueUpdate()
	s.tryMatch()
}

func (s *Server) handleLeaveQueue(c *client.Client) {
	if err := s.queue.Dequeue(c.ID); err != nil {
		s.sendError(c, "Not in queue")
		return
	}

	s.send(c, &protocol.LeftQueue{Action: protocol.ActionLeftQueue})
	s.broadcastQueueUpdate()
}

func (s *Server) handleMakeMove(c *client.Client, msg *protocol.MakeMove) {
	session, ok := s.sessions.Lookup(c.ID)
	if !ok {
		s.sendError(c, "Not in game")
		return
	}
	if msg.Position == nil {
		s.sendError(c, "No position provided")
		return
	}

	result, err := session.SubmitMove(c.ID, *msg.Position)
	switch {
	case errors.Is(err, ErrNotYourTurn):
		s.sendError(c, "Not your turn")
		return
	case errors.Is(err, game.ErrIllegalMove):
		s.sendError(c, "Invalid move")
		return
	case errors.Is(err, ErrGameOver):
		s.sendError(c, "Game is already over")
		return
	case err != nil:
		s.sendError(c, "Invalid move")
		return
	}

	s.broadcastState(session)

	if result.GameOver {
		s.finishGame(session, result)
	}
}

// finishGame announces a terminal result to both participants and persists
// the outcome. The state broadcast has already been sent, so a persistence
// failure affects nothing a player sees.
func (s *Server) finishGame(session *Session, result MoveResult) {
	over := &protocol.GameOver{
		Action:  protocol.ActionGameOver,
		Message: "Draw!",
	}
	if result.Winner != nil {
		over.Winner = result.Winner.Username
		over.Message = result.Winner.Username + " wins!"
	}

	participants := session.Participants()
	for _, p := range participants {
		if participantClient, ok := s.connections.Get(p.ConnectionID); ok {
			s.send(participantClient, over)
		}
	}

	var winnerID *uint
	if result.Winner != nil {
		id := result.Winner.PlayerID
		winnerID = &id
	}
	err := s.stats.RecordOutcome(
		participants[0].PlayerID,
		participants[1].PlayerID,
		winnerID,
		result.MoveCount,
	)
	if err != nil {
		s.logger.Errorf("[%s] failed to persist outcome of game %s: %v", s.name, session.ID, err)
	}
}

func (s *Server) handleChatMessage(c *client.Client, msg *protocol.ChatMessage) {
	session, ok := s.sessions.Lookup(c.ID)
	if !ok {
		s.sendError(c, "Not in game")
		return
	}
	if msg.Message == "" {
		s.sendError(c, "No message content")
		return
	}

	opponent, ok := session.Opponent(c.ID)
	if !ok {
		s.sendError(c, "Not in game")
		return
	}

	if opponentClient, live := s.connections.Get(opponent.ConnectionID); live {
		s.send(opponentClient, &protocol.ChatRelay{
			Action:  protocol.ActionChatMessage,
			From:    c.Player.Username,
			Message: msg.Message,
			Time:    time.Now().Format(timeFormat),
		})
	}
	s.send(c, &protocol.MessageSent{Action: protocol.ActionMessageSent})
}

func (s *Server) handleRequestRematch(c *client.Client) {
	session, ok := s.sessions.Lookup(c.ID)
	if !ok {
		s.sendError(c, "Not in game")
		return
	}

	reset, err := session.RequestRematch(c.ID)
	if err != nil {
		s.sendError(c, "Game is not over")
		return
	}

	if reset {
		state := session.State()
		s.logger.Infof("[%s] rematch accepted for game %s", s.name, session.ID)
		for symbol, p := range state.Players {
			if participantClient, ok := s.connections.Get(p.ConnectionID); ok {
				s.send(participantClient, &protocol.RematchAccepted{
					Action: protocol.ActionRematchAccepted,
					Symbol: string(symbol),
				})
			}
		}
	}

	// Either way the vote set (or the fresh board) is visible to both sides.
	s.broadcastState(session)
}

func (s *Server) handleGetStats(c *client.Client) {
	playerStats, err := s.stats.FetchStats(c.Player.ID)
	if err != nil {
		s.logger.Errorf("[%s] stats query failed for player %d: %v", s.name, c.Player.ID, err)
		s.sendError(c, titleCaser.String(err.Error()))
		return
	}

	s.send(c, &protocol.Stats{
		Action:     protocol.ActionStats,
		TotalGames: playerStats.TotalGames,
		Wins:       playerStats.Wins,
		Losses:     playerStats.TotalGames - playerStats.Wins,
	})
}

// tryMatch drains the queue two entries at a time. A popped participant whose
// connection died since enqueue is discarded and the still-live one returns
// to the head of the queue rather than being paired into a broken session.
func (s *Server) tryMatch() {
	for {
		s.lockMembership()

		first, second, ok := s.queue.PopPair()
		if !ok {
			s.unlockMembership()
			return
		}

		firstClient, firstLive := s.connections.Get(first.Participant.ConnectionID)
		secondClient, secondLive := s.connections.Get(second.Participant.ConnectionID)
		if !firstLive || !secondLive {
			if secondLive {
				s.queue.PushFront(second)
			}
			if firstLive {
				s.queue.PushFront(first)
			}
			s.unlockMembership()
			continue
		}

		session := NewSession(first.Participant, second.Participant)
		s.sessions.Add(session)
		s.unlockMembership()

		s.logger.Infof("[%s] started game %s: %q (X) vs %q (O)",
			s.name, session.ID, first.Participant.Username, second.Participant.Username)

		s.send(firstClient, &protocol.GameStart{
			Action:   protocol.ActionGameStart,
			GameID:   session.ID,
			Opponent: second.Participant.Username,
			Symbol:   string(game.X),
			YourTurn: true,
		})
		s.send(secondClient, &protocol.GameStart{
			Action:   protocol.ActionGameStart,
			GameID:   session.ID,
			Opponent: first.Participant.Username,
			Symbol:   string(game.O),
			YourTurn: false,
		})

		s.broadcastState(session)
		s.broadcastQueueUpdate()
	}
}

// matchmakingLoop periodically re-evaluates the queue until the server shuts
// down. A panic in one pass is logged and the loop keeps running.
func (s *Server) matchmakingLoop(ctx context.Context) {
	interval := time.Duration(s.config.GameServer.MatchmakingIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runMatchmakingPass()
		}
	}
}

func (s *Server) runMatchmakingPass() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("[%s] recovered from matchmaking error: %v", s.name, r)
		}
	}()
	s.tryMatch()
}

func (s *Server) participant(c *client.Client) Participant {
	return Participant{
		ConnectionID: c.ID,
		PlayerID:     c.Player.ID,
		Username:     c.Player.Username,
	}
}

func (s *Server) lockMembership()   { s.membership.Lock() }
func (s *Server) unlockMembership() { s.membership.Unlock() }
