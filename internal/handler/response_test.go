package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "resume-chat-go/internal/errors"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: chat c1", apperrors.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: key", apperrors.ErrForbidden), http.StatusForbidden},
		{apperrors.ErrValidation, http.StatusBadRequest},
		{apperrors.ErrNoFile, http.StatusBadRequest},
		{apperrors.ErrConfiguration, http.StatusInternalServerError},
		{fmt.Errorf("%w: minio down", apperrors.ErrUpstream), http.StatusInternalServerError},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		status, _ := statusFor(tc.err)
		assert.Equal(t, tc.want, status, tc.err.Error())
	}
}

func TestStatusFor_HidesInternalDetails(t *testing.T) {
	_, msg := statusFor(fmt.Errorf("%w: dial tcp 10.0.0.1:9000", apperrors.ErrUpstream))
	assert.NotContains(t, msg, "10.0.0.1")
}

func TestValidateRequest(t *testing.T) {
	err := validateRequest(ChatRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "Messages")

	assert.NoError(t, validateRequest(CreateChatRequest{Message: "hi"}))
}
