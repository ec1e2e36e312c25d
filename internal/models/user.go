package models

import "time"

// User represents application user.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	DisplayName  string    `gorm:"size:64"`
	Email        string    `gorm:"size:128"`
	Firm         string    `gorm:"size:64"`
	Unit         string    `gorm:"size:64"`
	Location     string    `gorm:"size:64"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`
}
