package handlers

import (
	"net/http"

	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/helpers"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/middleware"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/models"
	"github.com/darrenholm/holmdale-rodeo-v3-sub001/internal/shiptime"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductHandler struct {
	shipping RateProvider
}

func NewProductHandler(shipping RateProvider) *ProductHandler {
	return &ProductHandler{shipping: shipping}
}

func (h *ProductHandler) List(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	var products []models.Product
	if err := db.Find(&products).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to list products.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": products})
}

type MerchLineItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

type CreateMerchOrderRequest struct {
	CustomerName  string          `json:"customer_name" binding:"required"`
	CustomerEmail string          `json:"customer_email" binding:"required,email"`
	ShipAddress   string          `json:"ship_address" binding:"required"`
	ShipCity      string          `json:"ship_city" binding:"required"`
	ShipProvince  string          `json:"ship_province" binding:"required"`
	ShipPostal    string          `json:"ship_postal" binding:"required"`
	Items         []MerchLineItem `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder records a merchandise order at successful checkout. There is
// no pending state: the order exists only once payment has cleared.
func (h *ProductHandler) CreateOrder(c *gin.Context) {
	var req CreateMerchOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	db := middleware.GetDB(c)
	if db == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	subtotal := decimal.Zero
	items := make([]models.MerchOrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		var product models.Product
		if err := db.First(&product, "id = ?", line.ProductID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				helpers.RespondWithError(c, http.StatusNotFound, "Product not found.")
				return
			}
			helpers.RespondWithError(c, http.StatusInternalServerError, "Error loading product.")
			return
		}

		items = append(items, models.MerchOrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		subtotal = subtotal.Add(decimal.NewFromInt(int64(product.Price)).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	rates := h.shipping.GetRates(c.Request.Context(), shiptime.RateRequest{
		From: warehouseAddress,
		To: shiptime.Address{
			Street:     req.ShipAddress,
			City:       req.ShipCity,
			Province:   req.ShipProvince,
			PostalCode: req.ShipPostal,
			Country:    "CA",
		},
		Packages: []shiptime.Package{{WeightKg: 0.5 * float64(len(items)), LengthCm: 30, WidthCm: 25, HeightCm: 15}},
	})
	cheapest := rates[0]
	shippingCents := decimal.NewFromFloat(cheapest.Total).Mul(decimal.NewFromInt(100)).Round(0)

	// Prices are stored in cents; tax applies to goods, not shipping.
	taxed := subtotal.Mul(decimal.NewFromFloat(1.13)).Round(0)
	total := taxed.Add(shippingCents)

	order := models.MerchOrder{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ShipAddress:   req.ShipAddress,
		ShipCity:      req.ShipCity,
		ShipProvince:  req.ShipProvince,
		ShipPostal:    req.ShipPostal,
		ShipCarrier:   cheapest.Carrier,
		ShippingCost:  int(shippingCents.IntPart()),
		Total:         int(total.IntPart()),
		Items:         items,
	}

	if err := db.Create(&order).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create order.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
}

func (h *ProductHandler) GetOrder(c *gin.Context) {
	db := middleware.GetDB(c)
	if db == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid order ID.")
		return
	}

	var order models.MerchOrder
	if err := db.Preload("Items.Product").First(&order, "id = ?", orderID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Order not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving order.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
}
