package utils

import (
	"errors"
	"net/http"

	"healthcare-messaging-server/internal/messaging"

	"github.com/gin-gonic/gin"
)

// ResponseData represents the structure of a standard API response.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a standard success response.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a standard resource created response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends a standard error response.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
	})
}

// BadRequest sends a 400 Bad Request error response.
func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

// Forbidden sends a 403 Forbidden error response.
func Forbidden(c *gin.Context, errorMessage string) {
	Error(c, http.StatusForbidden, errorMessage)
}

// NotFound sends a 404 Not Found error response.
func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

// InternalServerError sends a 500 Internal Server Error response.
func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}

// MessagingError maps an error returned by the messaging service to a response.
// failure is used for anything that is not a caller mistake.
func MessagingError(c *gin.Context, err error, failure string) {
	var verr *messaging.ValidationError
	switch {
	case errors.Is(err, messaging.ErrUnauthenticated):
		Unauthorized(c, "You must be signed in")
	case errors.As(err, &verr):
		BadRequest(c, verr.Error())
	case errors.Is(err, messaging.ErrInvalidInput):
		BadRequest(c, err.Error())
	case errors.Is(err, messaging.ErrForbidden):
		Forbidden(c, "You are not allowed to perform this action")
	case errors.Is(err, messaging.ErrNotFound):
		NotFound(c, "Message not found")
	default:
		InternalServerError(c, failure)
	}
}
