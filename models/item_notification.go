package models

import (
	"time"
)

type ItemNotification struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	TodoItemID        uint      `json:"todo_item_id" gorm:"index;not null"`
	NotionDescription *string   `json:"notion_description"`
	ExpirationTime    time.Time `json:"expiration_time"`
	Autocomplete      bool      `json:"autocomplete" gorm:"default:false"`
}

func (ItemNotification) TableName() string {
	return "item_notifications"
}
