package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
	"github.com/khajiev13/lab-tutor-sub001/internal/services"
)

type EmbeddingHandler struct {
	log              *logger.Logger
	embeddingService services.EmbeddingService
}

func NewEmbeddingHandler(log *logger.Logger, embeddingService services.EmbeddingService) *EmbeddingHandler {
	return &EmbeddingHandler{
		log:              log.With("handler", "EmbeddingHandler"),
		embeddingService: embeddingService,
	}
}

// POST /api/courses/:id/embeddings
// Kicks off the embedding run for every processed file in the course and
// returns immediately; progress is visible on the status endpoint.
func (h *EmbeddingHandler) StartCourseEmbedding(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	go func() {
		if err := h.embeddingService.EmbedCourse(context.Background(), courseID); err != nil {
			h.log.Warn("Course embedding run failed", "course_id", courseID, "error", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "course_id": courseID})
}

// POST /api/files/:id/embeddings
// Embeds a single processed document synchronously.
func (h *EmbeddingHandler) EmbedFile(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_file_id", err)
		return
	}

	if err := h.embeddingService.EmbedDocument(c.Request.Context(), fileID); err != nil {
		h.log.Error("EmbedFile failed", "error", err, "file_id", fileID, "request_id", requestID(c))
		RespondFromError(c, http.StatusInternalServerError, "embed_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "completed", "file_id": fileID})
}
