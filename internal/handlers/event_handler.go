package handlers

import (
	"context"
	"net/http"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/pricing"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
	"github.com/gin-gonic/gin"
)

type EventBackend interface {
	ListEvents(ctx context.Context) ([]railway.Event, error)
	GetEvent(ctx context.Context, id string) (railway.Event, error)
	UpdateEventPricing(ctx context.Context, id string, update railway.PricingUpdate) (railway.Event, error)
}

type EventHandler struct {
	backend EventBackend
}

func NewEventHandler(backend EventBackend) *EventHandler {
	return &EventHandler{backend: backend}
}

type eventView struct {
	railway.Event
	CurrentTier        int    `json:"current_tier"`
	CurrentAdultPrice  string `json:"current_adult_price"`
	CurrentChildPrice  string `json:"current_child_price"`
	CurrentFamilyPrice string `json:"current_family_price"`
}

func withPricing(event railway.Event) eventView {
	tier := pricing.Resolve(event)
	return eventView{
		Event:              event,
		CurrentTier:        tier.Number,
		CurrentAdultPrice:  tier.AdultPrice.StringFixed(2),
		CurrentChildPrice:  tier.ChildPrice.StringFixed(2),
		CurrentFamilyPrice: tier.FamilyPrice.StringFixed(2),
	}
}

func (h *EventHandler) List(c *gin.Context) {
	events, err := h.backend.ListEvents(c.Request.Context())
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	views := make([]eventView, 0, len(events))
	for _, event := range events {
		views = append(views, withPricing(event))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": views})
}

func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.backend.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": withPricing(event)})
}

// UpdatePricing applies admin tier edits and relays the updated event.
func (h *EventHandler) UpdatePricing(c *gin.Context) {
	var update railway.PricingUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	event, err := h.backend.UpdateEventPricing(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": withPricing(event)})
}
