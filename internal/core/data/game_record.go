package data

import (
	"time"

	"gorm.io/gorm"
)

// GameRecord is the persisted outcome of one terminal game between two players.
// WinnerID is nil for a draw.
type GameRecord struct {
	ID         uint `gorm:"primaryKey"`
	Player1ID  uint `gorm:"not null; index"`
	Player2ID  uint `gorm:"not null; index"`
	WinnerID   *uint
	TurnsCount int
	CreatedAt  time.Time
}

// PlayerStats is the aggregate win/loss record for one player.
type PlayerStats struct {
	TotalGames int64
	Wins       int64
}

// CreateGameRecord persists the GameRecord to the database.
func CreateGameRecord(db *gorm.DB, record *GameRecord) error {
	return db.Create(record).Error
}

// FindPlayerStats computes the aggregate stats for the player identified by
// playerID. Players with no recorded games report zeroes.
func FindPlayerStats(db *gorm.DB, playerID uint) (PlayerStats, error) {
	var stats PlayerStats

	err := db.Model(&GameRecord{}).
		Where("player1_id = ? OR player2_id = ?", playerID, playerID).
		Count(&stats.TotalGames).Error
	if err != nil {
		return PlayerStats{}, err
	}

	err = db.Model(&GameRecord{}).
		Where("winner_id = ?", playerID).
		Count(&stats.Wins).Error
	if err != nil {
		return PlayerStats{}, err
	}

	return stats, nil
}
