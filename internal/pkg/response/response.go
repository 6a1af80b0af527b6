package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/todoshare/internal/pkg/logger"
	apperrors "github.com/xyz-asif/todoshare/pkg/errors"
)

// APIResponse is the envelope of every JSON body the API returns
type APIResponse struct {
	Success    bool        `json:"success" example:"true"`
	StatusCode int         `json:"statusCode" example:"200"`
	Message    string      `json:"message" example:"ok"`
	Data       interface{} `json:"data,omitempty"`
	Code       string      `json:"code,omitempty" example:"TODO_NOT_FOUND"`
}

func write(c *gin.Context, status int, data interface{}, message ...string) {
	msg := http.StatusText(status)
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}

	c.JSON(status, APIResponse{
		Success:    status < http.StatusBadRequest,
		StatusCode: status,
		Message:    msg,
		Data:       data,
	})
}

// Success sends a 200 OK response with data
func Success(c *gin.Context, data interface{}, message ...string) {
	write(c, http.StatusOK, data, message...)
}

// Created sends a 201 Created response and points Location at the new resource
func Created(c *gin.Context, location string, data interface{}, message ...string) {
	if location != "" {
		c.Header("Location", location)
	}
	write(c, http.StatusCreated, data, message...)
}

// NoContent sends a 204 with no body
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with custom status code and message
func Error(c *gin.Context, statusCode int, message string, errorCode ...string) {
	code := ""
	if len(errorCode) > 0 {
		code = errorCode[0]
	}

	c.JSON(statusCode, APIResponse{
		Success:    false,
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	})
}

// ErrorWithData sends an error response that also carries a data payload
func ErrorWithData(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:    false,
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	})
}

// BadRequest sends a 400 Bad Request error
func BadRequest(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusBadRequest, message, errorCode...)
}

// Unauthorized sends a 401 Unauthorized error
func Unauthorized(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusUnauthorized, message, errorCode...)
}

// Forbidden sends a 403 Forbidden error
func Forbidden(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusForbidden, message, errorCode...)
}

// NotFound sends a 404 Not Found error
func NotFound(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusNotFound, message, errorCode...)
}

// Conflict sends a 409 Conflict error
func Conflict(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusConflict, message, errorCode...)
}

// InternalServerError sends a 500 Internal Server Error
func InternalServerError(c *gin.Context, message string, errorCode ...string) {
	Error(c, http.StatusInternalServerError, message, errorCode...)
}

// BindJSONError handles JSON decode errors in request body
func BindJSONError(c *gin.Context, err error) {
	BadRequest(c, "Invalid request format", "INVALID_JSON")
}

// InvalidID handles path or body ids that are not ObjectIDs
func InvalidID(c *gin.Context, what string) {
	BadRequest(c, "Invalid "+what+" ID", "INVALID_ID")
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err as an API error. Only AppErrors expose their message;
// anything else is logged and reported as a generic 500.
func FromError(c *gin.Context, err error) {
	status := StatusFor(err)

	appErr, ok := apperrors.As(err)
	if !ok || status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}
	if !ok {
		InternalServerError(c, "Internal server error", "INTERNAL_ERROR")
		return
	}

	Error(c, status, appErr.Message, appErr.Code)
}
