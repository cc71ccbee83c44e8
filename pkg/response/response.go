// Package response renders the JSON envelope shared by every endpoint:
// {success, data, error{code, message, fields}, meta{page, per_page, total, total_pages}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/Natan-Asrat/digital-attendance-backend/pkg/errors"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo is the client-visible part of an AppError.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta describes one page of a list result.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta builds pagination metadata, rounding the page count up.
func NewMeta(page, perPage int, total int64) *Meta {
	meta := &Meta{Page: page, PerPage: perPage, Total: int(total)}
	if perPage > 0 {
		meta.TotalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return meta
}

// Success writes data with the given status.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Envelope{Success: true, Data: data})
}

// Paginated writes one page of items with its metadata.
func Paginated(c *gin.Context, items any, meta *Meta) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: items, Meta: meta})
}

// Error writes err as an error envelope. Errors that are not AppErrors are
// reported as a generic internal error without leaking their text.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		appErr = appErrors.ErrInternalServer
	}
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Envelope{
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		},
	})
}
