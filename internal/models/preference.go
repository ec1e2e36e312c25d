package models

import "time"

// Preference stores what a user wants to learn; one row per user.
// Skills is a JSON array, Role selects the mentor persona.
type Preference struct {
	UserID       uint   `gorm:"primaryKey"`
	LearningGoal string `gorm:"size:255"`
	Skills       string `gorm:"type:text"` // JSON array
	Difficulty   string `gorm:"size:16"`   // easy / medium / hard
	Role         string `gorm:"size:64"`
	UpdatedAt    time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
