package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/epilog-dev/epilog/internal/domain"
	"github.com/epilog-dev/epilog/internal/store"
)

// DiagnoseEvent runs the diagnosis loop for a target event and returns the
// report plus an optional suggested patch.
func (h *Handler) DiagnoseEvent(c echo.Context) error {
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid event id"})
	}

	windowSize := 0
	if v := c.QueryParam("window_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			windowSize = n
		}
	}

	ctx := c.Request().Context()

	result, err := h.service.Diagnose(ctx, eventID, windowSize)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "event not found"})
		}
		// ErrOracleNotConfigured and store failures both surface here; the
		// message distinguishes misconfiguration from transient faults.
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, result)
}

// ApplyPatch applies a suggested diff to a file under the project root.
func (h *Handler) ApplyPatch(c echo.Context) error {
	var req domain.ApplyPatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.FilePath == "" || req.DiffContent == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file_path and diff_content are required"})
	}

	ctx := c.Request().Context()

	resp, err := h.service.ApplyPatch(ctx, &req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}
