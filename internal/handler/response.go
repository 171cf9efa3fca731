package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewMessageResponse(message string, data interface{}) *Response {
	return &Response{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
		Error:   message,
	}
}

// ErrorBody renders err as the client-facing error and its HTTP status.
// Internal details never leave the server.
func ErrorBody(err error) (int, *Response) {
	if fe, ok := validator.FirstError(err); ok {
		resp := NewErrorResponse(fe.Message)
		resp.Field = fe.Field
		return http.StatusBadRequest, resp
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, NewErrorResponse("internal server error")
	}
	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		return status, NewErrorResponse("internal server error")
	}
	resp := NewErrorResponse(appErr.Message)
	resp.Field = appErr.Field
	return status, resp
}

// RespondError writes err and aborts the chain. Server errors are logged
// with the request id.
func RespondError(c *gin.Context, err error) {
	status, body := ErrorBody(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

// RespondBindError reports a failed ShouldBind. Field errors name the
// field, anything else is a malformed body.
func RespondBindError(c *gin.Context, err error) {
	if _, ok := validator.FirstError(err); ok {
		RespondError(c, err)
		return
	}
	RespondError(c, apperrors.Validation("invalid request body"))
}
