package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/gin-gonic/gin"
)

// ManagementBackend covers the backend surfaces we relay untouched; the
// management screens own these shapes, not us.
type ManagementBackend interface {
	ListStaff(ctx context.Context) (json.RawMessage, error)
	ListShifts(ctx context.Context) (json.RawMessage, error)
	DashboardStats(ctx context.Context) (json.RawMessage, error)
}

type StaffHandler struct {
	backend ManagementBackend
}

func NewStaffHandler(backend ManagementBackend) *StaffHandler {
	return &StaffHandler{backend: backend}
}

func (h *StaffHandler) List(c *gin.Context) {
	h.relay(c, h.backend.ListStaff)
}

func (h *StaffHandler) Shifts(c *gin.Context) {
	h.relay(c, h.backend.ListShifts)
}

func (h *StaffHandler) Dashboard(c *gin.Context) {
	h.relay(c, h.backend.DashboardStats)
}

func (h *StaffHandler) relay(c *gin.Context, fetch func(context.Context) (json.RawMessage, error)) {
	data, err := fetch(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
