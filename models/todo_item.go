package models

type TodoItem struct {
	ID            uint               `json:"id" gorm:"primaryKey"`
	Title         string             `json:"title" gorm:"index;not null"`
	Description   *string            `json:"description"`
	Completed     bool               `json:"completed" gorm:"default:false"`
	Notifications []ItemNotification `json:"-" gorm:"foreignKey:TodoItemID;constraint:OnDelete:CASCADE"`
}

func (TodoItem) TableName() string {
	return "todo_items"
}
