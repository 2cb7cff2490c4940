package models

import (
	"time"
)

type ShortLink struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	ShortID   string        `json:"short_id" gorm:"column:short_id;uniqueIndex;not null;size:64"`
	FullURL   string        `json:"full_url" gorm:"column:full_url;uniqueIndex;not null;size:2048"`
	CreatedAt time.Time     `json:"created_at"`
	Events    []AccessEvent `json:"-" gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE"`
}

func (ShortLink) TableName() string {
	return "short_urls"
}
