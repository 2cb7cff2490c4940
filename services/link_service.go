package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"minibackends/database"
	"minibackends/models"

	"gorm.io/gorm"
)

const DefaultMaxAttempts = 10

var (
	ErrNotFound            = errors.New("short link not found")
	ErrGenerationExhausted = errors.New("failed to generate a unique short id")
)

type LinkService struct {
	db          *gorm.DB
	logger      *slog.Logger
	idGenerator func(int) string
	idLength    int
	maxAttempts int
}

func NewLinkService(db *gorm.DB, logger *slog.Logger, idLength, maxAttempts int) *LinkService {
	if idLength < 1 {
		idLength = DefaultShortIDLength
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &LinkService{
		db:          db,
		logger:      logger,
		idGenerator: GenerateShortID,
		idLength:    idLength,
		maxAttempts: maxAttempts,
	}
}

// WithIDGenerator replaces the token source used for new short ids.
func (s *LinkService) WithIDGenerator(gen func(int) string) *LinkService {
	s.idGenerator = gen
	return s
}

// Shorten returns the link for targetURL, creating it on first use.
//
// A new link's short id is prefix followed by a generated token. The unique
// index on short_id decides collisions: a rejected insert is retried with a
// fresh token, up to maxAttempts times. The unique index on full_url means a
// rejected insert can also be a concurrent request for the same target, in
// which case the winner's row is returned.
func (s *LinkService) Shorten(ctx context.Context, targetURL, prefix string) (*models.ShortLink, error) {
	db := s.db.WithContext(ctx)

	existing, err := s.findByTarget(db, targetURL)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		link := models.ShortLink{
			ShortID: prefix + s.idGenerator(s.idLength),
			FullURL: targetURL,
		}

		err := db.Create(&link).Error
		if err == nil {
			s.logger.Debug("short link created", "short_id", link.ShortID, "full_url", link.FullURL, "attempt", attempt)
			return &link, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to create short link: %w", err)
		}

		winner, lookupErr := s.findByTarget(db, targetURL)
		if lookupErr == nil {
			return winner, nil
		}
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, lookupErr
		}

		s.logger.Debug("short id collision", "short_id", link.ShortID, "attempt", attempt)
	}

	s.logger.Warn("short id generation exhausted", "full_url", targetURL, "attempts", s.maxAttempts)
	return nil, ErrGenerationExhausted
}

func (s *LinkService) Resolve(ctx context.Context, shortID string) (*models.ShortLink, error) {
	var link models.ShortLink
	err := s.db.WithContext(ctx).Where("short_id = ?", shortID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load short link: %w", err)
	}
	return &link, nil
}

// Stats returns the link and its access events, oldest first.
func (s *LinkService) Stats(ctx context.Context, shortID string) (*models.ShortLink, []models.AccessEvent, error) {
	link, err := s.Resolve(ctx, shortID)
	if err != nil {
		return nil, nil, err
	}

	events := []models.AccessEvent{}
	err = s.db.WithContext(ctx).
		Where("url_item_id = ?", link.ID).
		Order("id asc").
		Find(&events).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load access events: %w", err)
	}
	return link, events, nil
}

func (s *LinkService) findByTarget(db *gorm.DB, targetURL string) (*models.ShortLink, error) {
	var link models.ShortLink
	err := db.Where("full_url = ?", targetURL).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up short link: %w", err)
	}
	return &link, nil
}
