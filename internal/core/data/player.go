package data

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Player contains the identity information for each registered participant.
type Player struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"unique; not null"`
	CreatedAt time.Time
}

// FindPlayerByUsername searches for a player with the specified username, returning
// the *Player instance if found or nil if there is no match.
func FindPlayerByUsername(db *gorm.DB, username string) (*Player, error) {
	var player Player
	err := db.Where("username = ?", username).First(&player).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &player, nil
}

// CreatePlayer persists the Player record to the database.
func CreatePlayer(db *gorm.DB, player *Player) error {
	return db.Create(player).Error
}
