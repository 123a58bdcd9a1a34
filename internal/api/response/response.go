// Package response writes API errors with a status that matches their kind.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// Status maps a domain error to an HTTP status code
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrChunkingDegenerate):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrScrape), errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConnection), errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrModelCall):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error aborts the request with {"error": message}
func Error(c *gin.Context, err error) {
	status := Status(err)
	message := err.Error()
	if errors.Is(err, domain.ErrScrape) {
		message = "no content, try a different URL"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// BadRequest aborts the request with 400 and the binding error
func BadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
