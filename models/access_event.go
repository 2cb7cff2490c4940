package models

import (
	"time"
)

// AccessEvent is one redirect through a ShortLink.
type AccessEvent struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LinkID     uint      `json:"url_item_id" gorm:"column:url_item_id;index;not null"`
	UserAgent  string    `json:"user_agent"`
	UserIP     string    `json:"user_ip" gorm:"column:user_ip;size:45"`
	Browser    string    `json:"browser" gorm:"size:100"`
	OS         string    `json:"os" gorm:"size:100"`
	DeviceType string    `json:"device_type" gorm:"size:20"`
	AccessedAt time.Time `json:"accessed_at"`
}

func (AccessEvent) TableName() string {
	return "url_statistics"
}
