package response

import (
	"errors"
	"net/http"

	"bedrock-relay/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID on every response.
const HeaderRequestID = "X-Request-ID"

// ErrorResponse is the error body returned for every failed request.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code"`
	RequestID string `json:"request_id"`
}

// OK sends a 200 response. Success bodies are written as-is (no envelope):
// the web client and the payment provider read the fields at the top level.
func OK(c *gin.Context, data interface{}) {
	c.Header(HeaderRequestID, getRequestID(c))
	c.JSON(http.StatusOK, data)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	requestID := getRequestID(c)
	c.Header(HeaderRequestID, requestID)

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			Detail:    appErr.Message,
			ErrorCode: appErr.Code,
			RequestID: requestID,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Detail:    "Internal server error",
		ErrorCode: "SYS_000",
		RequestID: requestID,
	})
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	id := uuid.New().String()
	c.Set("request_id", id)
	return id
}
