package api

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Caller-facing errors. Messages are fixed; details stay in the logs.
var (
	ErrInvalidRequest = &AppError{Code: http.StatusBadRequest, Message: "Invalid request body"}
	ErrRateLimited    = &AppError{Code: http.StatusTooManyRequests, Message: "Rate limit exceeded"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "Not found"}
)

// HandleError writes err as a JSON error body.
func HandleError(w http.ResponseWriter, err error) {
	appErr := asAppError(err)
	JSONErrorMessage(w, appErr.Code, appErr.Message)
}

// HandleTextError writes err as a plain text body.
func HandleTextError(w http.ResponseWriter, err error) {
	appErr := asAppError(err)
	Text(w, appErr.Code, appErr.Message)
}

func asAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer
}
