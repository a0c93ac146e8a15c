package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khajiev13/lab-tutor-sub001/internal/platform/apierr"
	"github.com/khajiev13/lab-tutor-sub001/internal/platform/ctxutil"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondFromError honors a typed API error's own status and code, falling
// back to the caller's defaults for everything else.
func RespondFromError(c *gin.Context, fallbackStatus int, fallbackCode string, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		RespondError(c, ae.Status, ae.Code, ae)
		return
	}
	RespondError(c, fallbackStatus, fallbackCode, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func requestID(c *gin.Context) string {
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		return td.RequestID
	}
	return ""
}
