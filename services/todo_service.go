package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"minibackends/models"

	"gorm.io/gorm"
)

var (
	ErrItemNotFound         = errors.New("item not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

type TodoCreate struct {
	Title       string  `json:"title" binding:"required"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

// TodoUpdate carries the fields a client wants changed. Nil means keep.
type TodoUpdate struct {
	Title       *string `json:"title" binding:"omitempty,min=1"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// ApplyTo merges the set fields into item.
func (u TodoUpdate) ApplyTo(item *models.TodoItem) {
	if u.Title != nil {
		item.Title = *u.Title
	}
	if u.Description != nil {
		description := *u.Description
		item.Description = &description
	}
	if u.Completed != nil {
		item.Completed = *u.Completed
	}
}

type NotificationCreate struct {
	NotionDescription *string    `json:"notion_description"`
	ExpirationTime    *time.Time `json:"expiration_time"`
	Autocomplete      bool       `json:"autocomplete"`
}

type TodoService struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewTodoService(db *gorm.DB, logger *slog.Logger) *TodoService {
	return &TodoService{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (s *TodoService) ListItems(ctx context.Context) ([]models.TodoItem, error) {
	items := []models.TodoItem{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *TodoService) GetItem(ctx context.Context, id uint) (*models.TodoItem, error) {
	return s.findItem(s.db.WithContext(ctx), id)
}

func (s *TodoService) CreateItem(ctx context.Context, req TodoCreate) (*models.TodoItem, error) {
	item := models.TodoItem{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	// Select keeps a false Completed from being swapped for the column default.
	err := s.db.WithContext(ctx).
		Select("Title", "Description", "Completed").
		Create(&item).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	s.logger.Debug("item created", "item_id", item.ID)
	return &item, nil
}

func (s *TodoService) UpdateItem(ctx context.Context, id uint, req TodoUpdate) (*models.TodoItem, error) {
	db := s.db.WithContext(ctx)

	item, err := s.findItem(db, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(item)

	err = db.Model(item).
		Select("Title", "Description", "Completed").
		Updates(item).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

// DeleteItem removes the item together with its notifications.
func (s *TodoService) DeleteItem(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.findItem(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("todo_item_id = ?", item.ID).Delete(&models.ItemNotification{}).Error; err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}
		if err := tx.Delete(item).Error; err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return nil
	})
}

func (s *TodoService) ListNotifications(ctx context.Context, itemID uint) ([]models.ItemNotification, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.findItem(db, itemID); err != nil {
		return nil, err
	}

	notifications := []models.ItemNotification{}
	if err := db.Where("todo_item_id = ?", itemID).Order("id asc").Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (s *TodoService) GetNotification(ctx context.Context, itemID, id uint) (*models.ItemNotification, error) {
	return s.findNotification(s.db.WithContext(ctx), itemID, id)
}

func (s *TodoService) CreateNotification(ctx context.Context, itemID uint, req NotificationCreate) (*models.ItemNotification, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.findItem(db, itemID); err != nil {
		return nil, err
	}

	expiration := s.now().UTC()
	if req.ExpirationTime != nil {
		expiration = *req.ExpirationTime
	}

	notification := models.ItemNotification{
		TodoItemID:        itemID,
		NotionDescription: req.NotionDescription,
		ExpirationTime:    expiration,
		Autocomplete:      req.Autocomplete,
	}
	err := db.Select("TodoItemID", "NotionDescription", "ExpirationTime", "Autocomplete").
		Create(&notification).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return &notification, nil
}

func (s *TodoService) DeleteNotifications(ctx context.Context, itemID uint) (int64, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.findItem(db, itemID); err != nil {
		return 0, err
	}

	result := db.Where("todo_item_id = ?", itemID).Delete(&models.ItemNotification{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *TodoService) DeleteNotification(ctx context.Context, itemID, id uint) error {
	db := s.db.WithContext(ctx)
	if _, err := s.findItem(db, itemID); err != nil {
		return err
	}

	notification, err := s.findNotification(db, itemID, id)
	if err != nil {
		return err
	}
	if err := db.Delete(notification).Error; err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (s *TodoService) findItem(db *gorm.DB, id uint) (*models.TodoItem, error) {
	var item models.TodoItem
	err := db.First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return &item, nil
}

func (s *TodoService) findNotification(db *gorm.DB, itemID, id uint) (*models.ItemNotification, error) {
	var notification models.ItemNotification
	err := db.Where("todo_item_id = ? AND id = ?", itemID, id).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	return &notification, nil
}
