package handler

import (
	"errors"
	"net/http"
	"strconv"

	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/service"
	apperrors "go-ticket-storefront/pkg/app_errors"
	"go-ticket-storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("orders", h.GetOrders)
		router.GET("orders/:id", h.GetOrder)
		router.GET("orders/:id/tickets", h.GetOrderTickets)
		router.POST("orders", h.CreateOrder)
		router.POST("orders/:id/payment", h.ConfirmPayment)
		router.PUT("orders/:id/cancel", h.CancelOrder)
		router.PUT("orders/:id/refund", h.RefundOrder)
		router.POST("carts/validate", h.ValidateCart)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var orderReq model.CreateOrderRequest

	if err := BindJson(c, &orderReq); err != nil {
		return
	}

	created, err := h.service.CreateOrder(c, orderReq)
	if err != nil {
		h.handleOrderError(c, err, "CreateOrder")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *OrderHandler) ConfirmPayment(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var outcome model.PaymentOutcome
	if err := BindJson(c, &outcome); err != nil {
		return
	}

	order, err := h.service.ConfirmPayment(c, idInt, outcome)
	if err != nil {
		h.handleOrderError(c, err, "ConfirmPayment")
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	order, err := h.service.GetOrderByID(c, idInt)
	if err != nil {
		h.handleOrderError(c, err, "GetOrder")
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	orders, err := h.service.OrderList(c)
	if err != nil {
		h.handleOrderError(c, err, "GetOrders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrderTickets(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	tickets, err := h.service.ListOrderTickets(c, idInt)
	if err != nil {
		h.handleOrderError(c, err, "GetOrderTickets")
		return
	}

	c.JSON(http.StatusOK, tickets)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	err = h.service.CancelOrder(c, idInt)
	if err != nil {
		h.handleOrderError(c, err, "CancelOrder")
		return
	}

	c.Status(http.StatusOK)
}

func (h *OrderHandler) RefundOrder(c *gin.Context) {
	idInt, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	err = h.service.RefundOrder(c, idInt)
	if err != nil {
		h.handleOrderError(c, err, "RefundOrder")
		return
	}

	c.Status(http.StatusOK)
}

func (h *OrderHandler) ValidateCart(c *gin.Context) {
	var cart model.Cart
	if err := BindJson(c, &cart); err != nil {
		return
	}

	validation, err := h.service.ValidateCart(c, cart)
	if err != nil {
		h.handleOrderError(c, err, "ValidateCart")
		return
	}

	c.JSON(http.StatusOK, validation)
}

// Helper functions

func (h *OrderHandler) handleOrderError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))

	var insufficient *apperrors.InsufficientStockError

	switch {
	case errors.As(err, &insufficient):
		// 帶出缺貨票種與剩餘數量，UI 可提示使用者減量
		log.Warn("Insufficient stock")
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Insufficient stock",
			"ticket_type_id": insufficient.TicketTypeID,
			"requested":      insufficient.Requested,
			"available":      insufficient.Available,
		})
	case errors.Is(err, apperrors.ErrConflict):
		log.Warn("Transient conflict")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Busy, please retry",
		})
	case errors.Is(err, apperrors.ErrStateViolation):
		log.Warn("State violation")
		c.JSON(http.StatusConflict, gin.H{
			"error": "Order state transition not allowed",
		})
	case errors.Is(err, apperrors.ErrExceedsMaxPerUser):
		log.Warn("Exceeds max per user")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Exceeds max per user",
		})
	case errors.Is(err, apperrors.ErrOrderNotFound):
		log.Warn("Order not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
	case errors.Is(err, apperrors.ErrTicketTypeNotFound):
		log.Warn("Ticket type not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Ticket type not found",
		})
	case isDiscountError(err):
		log.Warn("Discount rejected")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid input",
		})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

func isDiscountError(err error) bool {
	return errors.Is(err, apperrors.ErrDiscountNotFound) ||
		errors.Is(err, apperrors.ErrDiscountNotYetActive) ||
		errors.Is(err, apperrors.ErrDiscountExpired) ||
		errors.Is(err, apperrors.ErrDiscountNotEligible) ||
		errors.Is(err, apperrors.ErrDiscountExhausted)
}
