package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liliang-cn/askpdf/internal/domain"
)

func TestStatus(t *testing.T) {
	cases := map[error]int{
		domain.ErrInvalidRequest: http.StatusBadRequest,
		domain.ErrNotFound:       http.StatusNotFound,
		domain.ErrTurnInProgress: http.StatusConflict,
		domain.ErrScrape:         http.StatusUnprocessableEntity,
		domain.ErrEmptyDocument:  http.StatusUnprocessableEntity,
		domain.ErrConnection:     http.StatusBadGateway,
		domain.ErrEmbedding:      http.StatusBadGateway,
		domain.ErrModelCall:      http.StatusBadGateway,
		errors.New("boom"):       http.StatusInternalServerError,
	}
	for err, want := range cases {
		wrapped := fmt.Errorf("handler: %w", err)
		assert.Equal(t, want, Status(wrapped), err.Error())
	}
}
