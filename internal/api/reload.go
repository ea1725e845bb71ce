package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/offloadml/offloadml/internal/config"
	"github.com/offloadml/offloadml/internal/model"
)

// ReloadModel swaps in the currently published artifact set without a
// restart, typically after a training run announced a new version.
func ReloadModel(c echo.Context) error {
	dir := config.GetString(config.ARTIFACTS_DIR, "artifacts")
	if err := decisionService.Reload(dir); err != nil {
		if errors.Is(err, model.ErrNoArtifacts) {
			return errorJSON(c, http.StatusServiceUnavailable, ErrCodeModelUnavailable, err.Error())
		}
		log.Printf("Model reload failed: %v", err)
		return errorJSON(c, http.StatusInternalServerError, ErrCodeStorageFailed, "could not load the published artifact set")
	}

	log.Printf("Reloaded artifact set %s", decisionService.Version())
	return c.JSON(http.StatusOK, map[string]string{
		"status":           "success",
		"artifact_version": decisionService.Version(),
	})
}
