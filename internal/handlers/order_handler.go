package handlers

import (
	"context"
	"net/http"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/moneris"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/orders"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/pricing"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/railway"
	"github.com/gin-gonic/gin"
)

type OrderCoordinator interface {
	Initiate(ctx context.Context, req orders.InitiateRequest) (orders.InitiateResponse, error)
	ConfirmByCode(ctx context.Context, code, transactionID string) (orders.ConfirmResult, error)
	ConfirmByID(ctx context.Context, id, transactionID string) (orders.ConfirmResult, error)
	Refund(ctx context.Context, id string, amount float64, reason string) (railway.TicketOrder, error)
}

type OrderSearcher interface {
	GetTicketOrder(ctx context.Context, id string) (railway.TicketOrder, error)
	FindTicketOrderByCode(ctx context.Context, code string) (railway.TicketOrder, error)
	SearchTicketOrdersByCustomer(ctx context.Context, name string) ([]railway.TicketOrder, error)
}

type OrderHandler struct {
	coordinator OrderCoordinator
	backend     OrderSearcher
}

func NewOrderHandler(coordinator OrderCoordinator, backend OrderSearcher) *OrderHandler {
	return &OrderHandler{coordinator: coordinator, backend: backend}
}

type CreateOrderRequest struct {
	EventID        string `json:"event_id" binding:"required"`
	CustomerName   string `json:"customer_name" binding:"required"`
	CustomerEmail  string `json:"customer_email" binding:"required,email"`
	CustomerPhone  string `json:"customer_phone"`
	AdultQuantity  int    `json:"adult_quantity"`
	ChildQuantity  int    `json:"child_quantity"`
	FamilyQuantity int    `json:"family_quantity"`
	BarCredits     int    `json:"bar_credits"`
}

// Create initiates checkout: a pending order plus a hosted-checkout session
// the caller redirects the customer to.
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	resp, err := h.coordinator.Initiate(c.Request.Context(), orders.InitiateRequest{
		EventID:       req.EventID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Quantities: pricing.Quantities{
			Adult:      req.AdultQuantity,
			Child:      req.ChildQuantity,
			Family:     req.FamilyQuantity,
			BarCredits: req.BarCredits,
		},
	})
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order_id":          resp.Order.ID,
			"confirmation_code": resp.Order.ConfirmationCode,
			"ticket":            resp.Ticket,
			"redirect_url":      resp.RedirectURL,
			"tier":              resp.Quote.Tier.Number,
			"subtotal":          resp.Quote.Subtotal.StringFixed(2),
			"tax":               resp.Quote.Tax.StringFixed(2),
			"total":             resp.Quote.Total.StringFixed(2),
		},
	})
}

// Webhook receives Moneris' asynchronous transaction report. Declined
// payloads are acknowledged without confirming anything; approved ones
// converge on the same confirmed state as the manual path.
func (h *OrderHandler) Webhook(c *gin.Context) {
	var payload moneris.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid webhook payload.")
		return
	}

	if payload.OrderNo == "" {
		helpers.RespondWithError(c, http.StatusBadRequest, "Webhook payload missing order_no.")
		return
	}

	if !payload.Approved() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    gin.H{"acknowledged": true, "confirmed": false},
		})
		return
	}

	result, err := h.coordinator.ConfirmByCode(c.Request.Context(), payload.OrderNo, payload.TxnNum)
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"acknowledged":      true,
			"confirmed":         true,
			"already_confirmed": result.AlreadyConfirmed,
		},
	})
}

type ConfirmOrderRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// Confirm is the synchronous redirect-success path; it must land on the
// same final state as the webhook.
func (h *OrderHandler) Confirm(c *gin.Context) {
	var req ConfirmOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	result, err := h.coordinator.ConfirmByID(c.Request.Context(), c.Param("id"), req.TransactionID)
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":             result.Order,
			"already_confirmed": result.AlreadyConfirmed,
			"email_sent":        result.EmailSent,
		},
	})
}

type RefundOrderRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason"`
}

func (h *OrderHandler) Refund(c *gin.Context) {
	var req RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	order, err := h.coordinator.Refund(c.Request.Context(), c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.backend.GetTicketOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		helpers.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}

// Search looks orders up either by confirmation code (case-exact, single
// result) or by customer name (case-insensitive substring, list result).
func (h *OrderHandler) Search(c *gin.Context) {
	if code := c.Query("confirmation_code"); code != "" {
		order, err := h.backend.FindTicketOrderByCode(c.Request.Context(), code)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": []railway.TicketOrder{order}})
		return
	}

	if name := c.Query("customer"); name != "" {
		matches, err := h.backend.SearchTicketOrdersByCustomer(c.Request.Context(), name)
		if err != nil {
			helpers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": matches})
		return
	}

	helpers.RespondWithError(c, http.StatusBadRequest, "Provide confirmation_code or customer to search by.")
}
