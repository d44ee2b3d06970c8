// Package stats is the session engine's interface to the persistence layer:
// identity resolution, outcome recording, and win/loss queries. Reads are
// served through a short-lived cache that is invalidated whenever an outcome
// is recorded for the player.
package stats

import (
	"fmt"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mbrault/morpion/internal/core/data"
)

const statsCacheTTL = 30 * time.Second

// Service wraps the database operations the game server needs. A failure in
// any of these must never corrupt in-memory game state; callers log and move on.
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
	cache  *gocache.Cache
}

func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		cache:  gocache.New(statsCacheTTL, time.Minute),
	}
}

// ResolveOrCreate returns the persistent identity for username, creating a
// new record on first login.
func (s *Service) ResolveOrCreate(username string) (*data.Player, error) {
	player, err := data.FindPlayerByUsername(s.db, username)
	if err != nil {
		return nil, fmt.Errorf("error looking up player %q: %w", username, err)
	}
	if player != nil {
		return player, nil
	}

	player = &data.Player{Username: username}
	if err := data.CreatePlayer(s.db, player); err != nil {
		return nil, fmt.Errorf("error creating player %q: %w", username, err)
	}
	s.logger.Infof("registered new player %q (id %d)", username, player.ID)
	return player, nil
}

// RecordOutcome persists the result of one terminal game. winnerID is nil
// for a draw. Cached stats for both players are invalidated.
func (s *Service) RecordOutcome(player1ID, player2ID uint, winnerID *uint, turnsCount int) error {
	record := &data.GameRecord{
		Player1ID:  player1ID,
		Player2ID:  player2ID,
		WinnerID:   winnerID,
		TurnsCount: turnsCount,
	}
	if err := data.CreateGameRecord(s.db, record); err != nil {
		return fmt.Errorf("error recording game outcome: %w", err)
	}

	s.cache.Delete(cacheKey(player1ID))
	s.cache.Delete(cacheKey(player2ID))
	return nil
}

// FetchStats returns the aggregate win/loss record for playerID, from cache
// when a recent read is available.
func (s *Service) FetchStats(playerID uint) (data.PlayerStats, error) {
	if cached, found := s.cache.Get(cacheKey(playerID)); found {
		return cached.(data.PlayerStats), nil
	}

	stats, err := data.FindPlayerStats(s.db, playerID)
	if err != nil {
		return data.PlayerStats{}, fmt.Errorf("error fetching stats for player %d: %w", playerID, err)
	}

	s.cache.Set(cacheKey(playerID), stats, gocache.DefaultExpiration)
	return stats, nil
}

func cacheKey(playerID uint) string {
	return strconv.FormatUint(uint64(playerID), 10)
}
