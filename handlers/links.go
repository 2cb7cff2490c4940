package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"minibackends/database"
	"minibackends/models"
	"minibackends/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// maxTargetURLLength matches the full_url column size.
const maxTargetURLLength = 2048

var modifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{0,32}$`)

type ShortenRequest struct {
	URL string `json:"url" binding:"required"`
}

type LinkHandler struct {
	db      *gorm.DB
	logger  *slog.Logger
	links   *services.LinkService
	stats   *services.StatsService
	baseURL string
}

func NewLinkHandler(db *gorm.DB, logger *slog.Logger, links *services.LinkService, stats *services.StatsService, baseURL string) *LinkHandler {
	return &LinkHandler{
		db:      db,
		logger:  logger,
		links:   links,
		stats:   stats,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (h *LinkHandler) Shorten(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if err := validateTargetURL(req.URL); err != nil {
		validationError(c, err)
		return
	}

	modifier := c.Query("modifier")
	if !modifierPattern.MatchString(modifier) {
		validationError(c, errors.New("modifier may only contain letters, digits, '-' and '_' (max 32)"))
		return
	}

	link, err := h.links.Shorten(c.Request.Context(), req.URL, modifier)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"short_url": h.shortURL(c, link.ShortID)})
}

func (h *LinkHandler) Redirect(c *gin.Context) {
	link, err := h.links.Resolve(c.Request.Context(), c.Param("short_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	h.stats.RecordAsync(models.AccessEvent{
		LinkID:    link.ID,
		UserAgent: orUnknown(c.Request.UserAgent()),
		UserIP:    orUnknown(c.ClientIP()),
	})
	h.logger.Debug("redirecting", "short_id", link.ShortID, "full_url", link.FullURL)

	c.Redirect(http.StatusFound, link.FullURL)
}

func (h *LinkHandler) Stats(c *gin.Context) {
	link, events, err := h.links.Stats(c.Request.Context(), c.Param("short_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"short_id": link.ShortID,
		"full_url": link.FullURL,
		"stats":    events,
	})
}

func (h *LinkHandler) Health(c *gin.Context) {
	health(c, h.db)
}

func (h *LinkHandler) shortURL(c *gin.Context, shortID string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := strings.ToLower(c.GetHeader("X-Forwarded-Proto")); proto == "http" || proto == "https" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/" + shortID
}

func validateTargetURL(raw string) error {
	if len(raw) > maxTargetURLLength {
		return fmt.Errorf("url must be at most %d characters", maxTargetURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid url")
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if u.Host == "" {
		return errors.New("url must have a host")
	}
	return nil
}

func health(c *gin.Context, db *gorm.DB) {
	if err := database.Ping(c.Request.Context(), db); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
