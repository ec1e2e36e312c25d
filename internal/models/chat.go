package models

import "time"

// ChatSession 表示一次导师会话，消息记录加密存储
// MessagesEnc holds the whole transcript as AES+base64 JSON so the raw
// conversation never lands in the database in plaintext.
type ChatSession struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          uint   `gorm:"uniqueIndex:idx_user_title;not null"`
	Title           string `gorm:"size:128;uniqueIndex:idx_user_title;not null"`
	MessagesEnc     string `gorm:"type:text;not null"`
	Topics          string `gorm:"type:text"` // JSON array of topic names
	CurrentTopic    string `gorm:"size:128"`
	CompletedTopics string `gorm:"type:text"` // JSON array of topic names
	CreatedAt       time.Time
	UpdatedAt       time.Time `gorm:"index"`

	User User `gorm:"constraint:OnDelete:CASCADE"`
}

// ChatMessage is one turn of a mentor conversation as stored inside the
// transcript JSON and exchanged with the frontend.
type ChatMessage struct {
	Role      string  `json:"role"` // user / assistant
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp,omitempty"`
	AudioURL  string  `json:"audio_url,omitempty"`
}
