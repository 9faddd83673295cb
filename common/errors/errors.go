package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is an application error carrying the HTTP status and the message
// shown to the user. Redirect, when set, tells the client where to send
// the user next.
type Error struct {
	Code     int               `json:"code"`
	Message  string            `json:"error"`
	Redirect string            `json:"redirect,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Err      error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func BadRequest(message string, err error) *Error {
	return New(http.StatusBadRequest, message, err)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, nil)
}

func Conflict(message string, err error) *Error {
	return New(http.StatusConflict, message, err)
}

func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// Validation builds a 400 error listing the offending fields.
func Validation(fields map[string]string) *Error {
	e := New(http.StatusBadRequest, "Validation error", nil)
	e.Fields = fields
	return e
}

func (e *Error) WithRedirect(path string) *Error {
	e.Redirect = path
	return e
}

// From converts any error into an *Error; unknown errors become a 500.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("Internal server error", err)
}

// Abort writes err as the JSON response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	appErr := From(err)
	_ = c.Error(appErr)
	c.AbortWithStatusJSON(appErr.Code, appErr)
}

// ErrorMiddleware renders errors attached with c.Error when the handler
// did not write a response itself.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := From(c.Errors.Last().Err)
		c.AbortWithStatusJSON(appErr.Code, appErr)
	}
}
