package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulsepath-go/internal/repository"
)

type ArchiveHandler struct {
	log   *zap.Logger
	store *repository.DBStore
}

// NewArchiveHandler accepts a nil store; every route then answers 404.
func NewArchiveHandler(log *zap.Logger, store *repository.DBStore) *ArchiveHandler {
	return &ArchiveHandler{log: log, store: store}
}

func (h *ArchiveHandler) Stats(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Archive is disabled"})
		return
	}
	n, err := h.store.Count(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to count archived sessions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read archive"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": n})
}

func (h *ArchiveHandler) Ratings(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Archive is disabled"})
		return
	}
	id := c.Param("id")
	ratings, err := h.store.Ratings(c.Request.Context(), id)
	if err != nil {
		h.log.Error("Failed to load ratings", zap.String("session_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read archive"})
		return
	}
	if len(ratings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, ratings)
}
