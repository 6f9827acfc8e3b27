package handlers

import (
	"context"
	"net/http"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/shiptime"
	"github.com/gin-gonic/gin"
)

type RateProvider interface {
	GetRates(ctx context.Context, req shiptime.RateRequest) []shiptime.Rate
}

type ShippingHandler struct {
	provider RateProvider
}

func NewShippingHandler(provider RateProvider) *ShippingHandler {
	return &ShippingHandler{provider: provider}
}

type RateQuoteRequest struct {
	To       shiptime.Address   `json:"to" binding:"required"`
	Packages []shiptime.Package `json:"packages" binding:"required,min=1"`
}

var warehouseAddress = shiptime.Address{
	Street:     "4180 Concession Rd 5",
	City:       "Holmdale",
	Province:   "ON",
	PostalCode: "N0E 1A0",
	Country:    "CA",
}

// Rates quotes carrier rates for a merchandise shipment. This never fails:
// provider trouble degrades to the flat default rate.
func (h *ShippingHandler) Rates(c *gin.Context) {
	var req RateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	rates := h.provider.GetRates(c.Request.Context(), shiptime.RateRequest{
		From:     warehouseAddress,
		To:       req.To,
		Packages: req.Packages,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "data": rates})
}
