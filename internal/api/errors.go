package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/offloadml/offloadml/internal/client"
)

// Stable error codes; clients must be able to tell "your request was bad"
// apart from "the service isn't ready".
const (
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeEncodingFailed   = "encoding_failed"
	ErrCodeModelUnavailable = "model_unavailable"
	ErrCodeStorageFailed    = "storage_failed"
	ErrCodeComputeFailed    = "compute_failed"
)

func errorJSON(c echo.Context, httpStatus int, code string, message string) error {
	return c.JSON(httpStatus, client.ErrorResponse{
		Status:  "error",
		Error:   code,
		Message: message,
	})
}

func invalidRequest(c echo.Context, message string) error {
	return errorJSON(c, http.StatusBadRequest, ErrCodeInvalidRequest, message)
}
