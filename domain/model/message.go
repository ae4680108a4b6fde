package model

import "time"

// Message and Channel mirror the chat tables the search fallback reads. The core never writes them.
type Message struct {
	ID        uint64    `gorm:"primaryKey"`
	ChannelID uint64    `gorm:"not null;index"`
	AuthorID  uint64    `gorm:"not null;index"`
	Content   string    `gorm:"type:TEXT;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (Message) TableName() string {
	return "messages"
}

type Channel struct {
	ID      uint64 `gorm:"primaryKey"`
	GuildID uint64 `gorm:"not null;index"`
	Name    string `gorm:"type:VARCHAR(100);not null;default:''"`
}

func (Channel) TableName() string {
	return "channels"
}
