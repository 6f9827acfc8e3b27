package handlers

import (
	"context"
	"net/http"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/legacy"
	"github.com/gin-gonic/gin"
)

type LegacyImporter interface {
	Run(ctx context.Context) (legacy.Report, error)
}

type ImportHandler struct {
	importer LegacyImporter
}

func NewImportHandler(importer LegacyImporter) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// Run executes the legacy SQL Server import synchronously and reports
// per-row results.
func (h *ImportHandler) Run(c *gin.Context) {
	report, err := h.importer.Run(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
}
