// Package response renders the JSON envelope every endpoint answers with.
package response

import (
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the wire shape shared by success and failure responses.
// Optional fields are omitted when empty.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination derives TotalPages from total and limit.
func NewPagination(page, limit int, total int64) *Pagination {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

func OK(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Success: true, Data: data})
}

func OKWithMessage(c echo.Context, status int, data any, msg string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: msg})
}

func Paginated(c echo.Context, data any, p *Pagination) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}
