package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/khajiev13/lab-tutor-sub001/internal/platform/logger"
	"github.com/khajiev13/lab-tutor-sub001/internal/services"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
	statusService services.CourseStatusService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService, statusService services.CourseStatusService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
		statusService: statusService,
	}
}

type createCourseRequest struct {
	Name     string         `json:"name" binding:"required"`
	Metadata datatypes.JSON `json:"metadata,omitempty"`
}

// POST /api/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), req.Name, req.Metadata)
	if err != nil {
		h.log.Error("CreateCourse failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "create_course_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// GET /api/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	course, err := h.courseService.GetCourse(c.Request.Context(), courseID)
	if err != nil {
		RespondFromError(c, http.StatusInternalServerError, "load_course_failed", err)
		return
	}
	RespondOK(c, gin.H{"course": course})
}

// GET /api/courses/:id/status
// Extraction and embedding progress for the course and every uploaded file.
func (h *CourseHandler) GetStatus(c *gin.Context) {
	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_course_id", err)
		return
	}

	status, err := h.statusService.GetCourseStatus(c.Request.Context(), courseID)
	if err != nil {
		h.log.Error("GetStatus failed", "error", err, "course_id", courseID, "request_id", requestID(c))
		RespondFromError(c, http.StatusInternalServerError, "status_unavailable", err)
		return
	}
	RespondOK(c, status)
}
