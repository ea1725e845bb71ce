package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/offloadml/offloadml/internal/client"
	"github.com/offloadml/offloadml/internal/compute"
)

// MatrixMultiply executes the matrix multiplication task server-side; this
// is the remote half of the local-vs-remote comparison for matrix workloads.
func MatrixMultiply(c echo.Context) error {
	var req client.MatrixMultiplyRequest
	err := json.NewDecoder(c.Request().Body).Decode(&req)
	if err != nil && err != io.EOF {
		return invalidRequest(c, "could not parse matrix request")
	}
	if req.MatrixA == nil || req.MatrixB == nil {
		return invalidRequest(c, "both matrixA and matrixB are required")
	}

	result, err := compute.MultiplyMatrices(req.MatrixA, req.MatrixB)
	if err != nil {
		if errors.Is(err, compute.ErrDimensionMismatch) || errors.Is(err, compute.ErrEmptyMatrix) {
			return invalidRequest(c, err.Error())
		}
		return errorJSON(c, http.StatusInternalServerError, ErrCodeComputeFailed, err.Error())
	}

	return c.JSON(http.StatusOK, client.MatrixMultiplyResponse{Result: result})
}
