package common_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/thesis-checker/internal/common"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{common.ErrUnknownJob, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", common.ErrUnknownJob), http.StatusNotFound},
		{common.NewAppError("INVALID_INPUT", "Only PDF files are supported", common.ErrInvalidInput), http.StatusBadRequest},
		{common.ErrJobNotCompleted, http.StatusBadRequest},
		{common.ErrQueueFull, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, common.HTTPStatus(tt.err), "%v", tt.err)
	}
}

func TestPublicMessage(t *testing.T) {
	err := fmt.Errorf("submit: %w", common.NewAppError("INVALID_INPUT", "Only PDF files are supported", common.ErrInvalidInput))
	assert.Equal(t, "Only PDF files are supported", common.PublicMessage(err))
	assert.Equal(t, "job not found", common.PublicMessage(common.ErrUnknownJob))
	assert.Empty(t, common.PublicMessage(nil))
}

func TestAppError_Unwrap(t *testing.T) {
	err := common.NewAppError("UNREADABLE", "cannot parse", common.ErrUnreadableDocument)
	assert.ErrorIs(t, err, common.ErrUnreadableDocument)
	assert.Contains(t, err.Error(), "UNREADABLE: cannot parse")
	assert.Nil(t, common.WrapError(nil, "noop"))
}
