package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationError covers missing or malformed request fields.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthError covers a failed credential exchange, ours or the backend's.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NotFoundError covers a lookup miss on any resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// UpstreamError is any non-2xx reply from a third-party API. The body is
// relayed raw; callers must not assume a structured payload.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Body)
}

// GatewayError is a payment failure signaled inside an HTTP 200, via the
// gateway's nested success flag or its response-code sentinel.
type GatewayError struct {
	Message string
	Code    string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (code %s)", e.Message, e.Code)
	}
	return e.Message
}

// EmailError wraps a delivery failure from the email provider.
type EmailError struct {
	Err error
}

func (e *EmailError) Error() string {
	return fmt.Sprintf("email delivery failed: %v", e.Err)
}

func (e *EmailError) Unwrap() error {
	return e.Err
}

func HTTPStatusText(code int) string {
	return http.StatusText(code)
}

func RespondWithError(c *gin.Context, statusCode int, customMessage string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   HTTPStatusText(statusCode),
		Message: customMessage,
	})
}

// RespondError maps a typed error to its HTTP status and writes the JSON
// error envelope. Unknown errors become 500s with the original message.
func RespondError(c *gin.Context, err error) {
	var validation *ValidationError
	var auth *AuthError
	var notFound *NotFoundError
	var upstream *UpstreamError
	var gateway *GatewayError

	switch {
	case errors.As(err, &validation):
		RespondWithError(c, http.StatusBadRequest, validation.Message)
	case errors.As(err, &auth):
		RespondWithError(c, http.StatusUnauthorized, auth.Message)
	case errors.As(err, &notFound):
		RespondWithError(c, http.StatusNotFound, notFound.Error())
	case errors.As(err, &upstream):
		if upstream.Status == http.StatusNotFound {
			RespondWithError(c, http.StatusNotFound, upstream.Error())
			return
		}
		RespondWithError(c, http.StatusInternalServerError, upstream.Error())
	case errors.As(err, &gateway):
		RespondWithError(c, http.StatusInternalServerError, gateway.Error())
	default:
		RespondWithError(c, http.StatusInternalServerError, err.Error())
	}
}
