package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrorsTotal counts error responses by type. It is registered by the server
// on its metrics registry.
var ErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "blog",
		Name:      "http_errors_total",
		Help:      "Total HTTP error responses by error type.",
	},
	[]string{"type"},
)

// Respond writes err as a JSON error response and aborts the request.
func Respond(c *gin.Context, err error) {
	structuredErr := AsStructuredError(err)
	ErrorsTotal.WithLabelValues(string(structuredErr.Type)).Inc()
	logError(c, structuredErr)
	c.AbortWithStatusJSON(structuredErr.HTTPStatus(), structuredErr.ToResponse())
}

func logError(c *gin.Context, err *Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if userID, ok := c.Get("user_id"); ok {
		attrs = append(attrs, "user_id", userID)
	}

	ctx := c.Request.Context()
	switch err.Type {
	case TypeInternal, TypeExternal, TypeUnavailable:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.ErrorContext(ctx, "Request failed", attrs...)
	case TypeConflict, TypeRateLimited:
		slog.WarnContext(ctx, "Request rejected", attrs...)
	default:
		slog.DebugContext(ctx, "Request rejected", attrs...)
	}
}

// FromBinding converts a gin binding error into a validation error with
// per-field messages.
func FromBinding(err error) *Error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := Validation("Invalid input")
		for _, fe := range verrs {
			out.WithField(fieldName(fe), fieldMessage(fe))
		}
		return out
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.As(err, &syntaxErr):
		return Validation("Invalid request body")
	case errors.As(err, &typeErr):
		return Validation("Invalid input").WithField(typeErr.Field, "has an invalid type")
	}
	return Validation("Invalid input").WithContext("binding_error", err.Error())
}

func fieldName(fe validator.FieldError) string {
	// Namespace is "Struct.field.sub"; drop the struct name.
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "cannot be blank"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("must be at least %s", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if isNumeric(fe.Kind()) {
			return fmt.Sprintf("must be at most %s", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "slug":
		return "must contain only lowercase letters, numbers and hyphens"
	case "settingkey":
		return "must start with a lowercase letter or underscore and contain only lowercase letters, numbers and underscores"
	case "settingcategory":
		return "must contain only lowercase letters and underscores"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return "is invalid"
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
