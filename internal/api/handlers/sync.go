package handlers

import (
	"net/http"

	"wpm/internal/logger"
	"wpm/internal/models"
	"wpm/internal/sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SyncHandler struct {
	db     *gorm.DB
	logger *logger.Logger
	queue  *sync.Queue
}

func NewSyncHandler(db *gorm.DB, logger *logger.Logger, queue *sync.Queue) *SyncHandler {
	return &SyncHandler{
		db:     db,
		logger: logger,
		queue:  queue,
	}
}

// Enqueue schedules a sync for one shop. The job runs after any jobs
// already in the queue; poll the returned id for progress.
func (h *SyncHandler) Enqueue(c *gin.Context) {
	shopID := c.Param("id")

	var shop models.Shop
	if err := h.db.First(&shop, "id = ?", shopID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Shop not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shop"})
		return
	}

	job := h.queue.Enqueue(shop.ID)
	h.logger.Info("Enqueued sync job %s for shop %s", job.ID, shop.ID)

	c.JSON(http.StatusAccepted, gin.H{"data": job})
}

func (h *SyncHandler) GetJob(c *gin.Context) {
	job, ok := h.queue.Get(c.Param("jobId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": job})
}

func (h *SyncHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.queue.List()})
}
