package common

import (
	"net/http"
	"strings"

	apperrors "chatrelay-go/internal/errors"

	"github.com/gin-gonic/gin"
)

// AbortWithAPIError writes the OpenAI error envelope and aborts the request.
func AbortWithAPIError(c *gin.Context, err *apperrors.APIError) {
	if err == nil {
		err = apperrors.Internal("server_error", "unknown error")
	}
	payload, marshalErr := err.ToJSON()
	if marshalErr != nil {
		c.AbortWithStatusJSON(safeStatus(err.HTTPStatus), gin.H{
			"error": gin.H{
				"message": err.Message,
				"type":    err.Type,
				"code":    err.Code,
			},
		})
		return
	}
	c.Data(safeStatus(err.HTTPStatus), "application/json", payload)
	c.Abort()
}

// AbortWithError constructs an APIError from the provided fields and aborts the request.
func AbortWithError(c *gin.Context, status int, typ, message string) {
	typ = normalizeType(typ)
	AbortWithAPIError(c, apperrors.New(safeStatus(status), typ, typ, firstNonEmpty(message, "internal error")))
}

// AbortWithCause unwraps an *APIError from err when present and falls back
// to a 502 upstream_error otherwise.
func AbortWithCause(c *gin.Context, err error) *apperrors.APIError {
	apiErr, ok := apperrors.As(err)
	if !ok {
		msg := "upstream error"
		if err != nil {
			msg = err.Error()
		}
		apiErr = apperrors.New(http.StatusBadGateway, "upstream_error", "server_error", msg)
	}
	AbortWithAPIError(c, apiErr)
	return apiErr
}

func normalizeType(typ string) string {
	if strings.TrimSpace(typ) == "" {
		return "server_error"
	}
	return typ
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func safeStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}
