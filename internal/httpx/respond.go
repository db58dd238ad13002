// Package httpx holds the response envelope and the gin middleware that turns
// errors pushed with c.Error into that envelope.
package httpx

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"reviewme/internal/apperr"
)

type Envelope struct {
	Success      bool   `json:"success"`
	StatusCode   int    `json:"statusCode,omitempty"`
	Message      string `json:"message"`
	Data         any    `json:"data,omitempty"`
	TotalReviews *int64 `json:"totalReviews,omitempty"`
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: true, Message: message})
}

func Data(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func Page(c *gin.Context, message string, data any, total int64) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, TotalReviews: &total})
}

// BindJSON decodes the request body into v. An empty body leaves v untouched
// so the caller's own required-field checks decide the outcome.
func BindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("Invalid request body").Wrap(err)
	}
	return nil
}
