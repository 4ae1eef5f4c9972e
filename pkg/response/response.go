// Package response writes the service's JSON envelopes.
package response

import (
	"errors"
	"net/http"

	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errorBody  `json:"error,omitempty"`
	Meta    *pageMeta   `json:"meta,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

// Created writes 201 with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

// NoContent writes 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paginated writes a page of items with pagination metadata.
func Paginated[T any](c *gin.Context, page domain.PaginatedResult[T]) {
	c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    page.Items,
		Meta: &pageMeta{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	})
}

// BadRequest writes 400 with a validation code.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{
		Error: &errorBody{Code: string(domain.CodeValidation), Message: message},
	})
}

// Error maps err to a status code and writes it.
func Error(c *gin.Context, err error) {
	code := domain.CodeOf(err)
	message := "internal server error"
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	} else {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(StatusFor(code), envelope{
		Error: &errorBody{Code: string(code), Message: message},
	})
}

// StatusFor returns the HTTP status for an error code.
func StatusFor(code domain.ErrorCode) int {
	switch code {
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeDriverUnavailable:
		return http.StatusConflict
	case domain.CodeInvalidState, domain.CodeInvalidRole:
		return http.StatusUnprocessableEntity
	case domain.CodeValidation:
		return http.StatusBadRequest
	case domain.CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
