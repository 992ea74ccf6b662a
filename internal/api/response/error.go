package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/mmynk/ticketsplit/internal/service"
)

// Error codes returned in Err.Code.
const (
	CodeNotFound             = "not_found"
	CodeInvalidInput         = "invalid_input"
	CodeInsufficientQuantity = "insufficient_quantity"
	CodeInternal             = "internal"
)

// Err is the body of every error response.
type Err struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	status int
	err    error
}

func (e *Err) Error() string {
	return e.Message
}

func ErrBadRequest(err error) *Err {
	return &Err{Code: CodeInvalidInput, Message: err.Error(), status: http.StatusBadRequest, err: err}
}

func ErrNotFound(err error) *Err {
	return &Err{Code: CodeNotFound, Message: err.Error(), status: http.StatusNotFound, err: err}
}

func ErrConflict(err error) *Err {
	return &Err{Code: CodeInsufficientQuantity, Message: err.Error(), status: http.StatusConflict, err: err}
}

// ErrInternalServerError hides the cause from the client; it is only logged.
func ErrInternalServerError(err error) *Err {
	return &Err{Code: CodeInternal, Message: "internal server error", status: http.StatusInternalServerError, err: err}
}

// FromService maps a service error onto its HTTP form.
func FromService(err error) *Err {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return ErrNotFound(err)
	case errors.Is(err, service.ErrInsufficientQuantity):
		return ErrConflict(err)
	case errors.Is(err, service.ErrInvalidInput):
		return ErrBadRequest(err)
	default:
		return ErrInternalServerError(err)
	}
}

// RenderErr writes e and aborts the handler chain.
func RenderErr(c *gin.Context, e *Err) {
	if e.status >= http.StatusInternalServerError {
		slog.Error("Handler failed",
			"path", c.FullPath(),
			"request_id", requestid.Get(c),
			"error", e.err,
		)
	}
	c.Error(e.err)
	c.AbortWithStatusJSON(e.status, e)
}
