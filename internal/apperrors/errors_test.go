package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("x"), http.StatusBadRequest},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Forbidden("x"), http.StatusForbidden},
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{RateLimited("x"), http.StatusTooManyRequests},
		{Internal("x", nil), http.StatusInternalServerError},
		{External("x", nil), http.StatusBadGateway},
		{Unavailable("x", nil), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAsStructuredError(t *testing.T) {
	assert.Nil(t, AsStructuredError(nil))

	nf := NotFound("Comment not found")
	wrapped := fmt.Errorf("lookup: %w", nf)
	assert.Same(t, nf, AsStructuredError(wrapped))

	plain := errors.New("boom")
	got := AsStructuredError(plain)
	assert.Equal(t, TypeInternal, got.Type)
	assert.ErrorIs(t, got, plain)
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/comments", nil)

	Respond(c, Validation("Invalid input").WithField("content", "is required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid input", body.Error)
	assert.Equal(t, TypeValidation, body.Type)
	assert.Equal(t, []string{"is required"}, body.FieldErrors["content"])
}

func TestRespondHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Respond(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestFromBinding(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type input struct {
		Content string `json:"content" binding:"required,max=5"`
		Email   string `json:"email" binding:"required,email"`
	}

	bind := func(body string) error {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		c.Request.Header.Set("Content-Type", "application/json")
		var in input
		return c.ShouldBindJSON(&in)
	}

	err := FromBinding(bind(`{"content":"too long for this","email":"nope"}`))
	assert.Equal(t, TypeValidation, err.Type)
	assert.Len(t, err.FieldErrors, 2)

	err = FromBinding(bind(`{"content":`))
	assert.Equal(t, "Invalid request body", err.Message)

	err = FromBinding(bind(``))
	assert.Equal(t, "Invalid request body", err.Message)
}

func TestFromBindingComparisonMessages(t *testing.T) {
	type limits struct {
		Count int `validate:"gt=0"`
		Floor int `validate:"gte=1"`
	}

	err := FromBinding(validator.New().Struct(limits{}))
	assert.Equal(t, []string{"must be greater than 0"}, err.FieldErrors["Count"])
	assert.Equal(t, []string{"must be greater than or equal to 1"}, err.FieldErrors["Floor"])
}
