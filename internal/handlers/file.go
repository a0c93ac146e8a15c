package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
	"github.com/khajiev13/lab-tutor-sub001/internal/services"
)

type FileHandler struct {
	log              *logger.Logger
	ingestionService services.IngestionService
}

func NewFileHandler(log *logger.Logger, ingestionService services.IngestionService) *FileHandler {
	return &FileHandler{
		log:              log.With("handler", "FileHandler"),
		ingestionService: ingestionService,
	}
}

// POST /api/courses/:id/files
// Multipart upload under the "files" field. Every part is ingested; a bad
// file is reported in its own row and does not abort the rest of the batch.
func (h *FileHandler) UploadFiles(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
		return
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		RespondError(c, http.StatusBadRequest, "no_files", nil)
		return
	}

	uploads := make([]services.UploadFile, 0, len(parts))
	for _, part := range parts {
		src, err := part.Open()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "unreadable_file", err)
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "unreadable_file", err)
			return
		}
		uploads = append(uploads, services.UploadFile{
			Filename:    part.Filename,
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	rows, err := h.ingestionService.IngestBatch(c.Request.Context(), courseID, uploads)
	if err != nil {
		h.log.Error("UploadFiles failed", "error", err, "course_id", courseID, "request_id", requestID(c))
		RespondFromError(c, http.StatusInternalServerError, "ingest_failed", err)
		return
	}
	RespondOK(c, gin.H{"files": rows})
}
