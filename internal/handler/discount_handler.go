package handler

import (
	"errors"
	"net/http"

	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/service"
	apperrors "go-ticket-storefront/pkg/app_errors"
	"go-ticket-storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DiscountHandler struct {
	service service.DiscountService
}

func NewDiscountHandler(service service.DiscountService) *DiscountHandler {
	return &DiscountHandler{service: service}
}

func (h *DiscountHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("discounts", h.Create)
		router.POST("discounts/validate", h.Validate)
	}
}

// CreateDiscountRequest 建立折扣碼請求
type CreateDiscountRequest struct {
	Code               string  `json:"code" binding:"required"`
	Type               string  `json:"type" binding:"required"`
	Value              float64 `json:"value" binding:"required"`
	ValidFrom          string  `json:"valid_from" binding:"required"`
	ValidUntil         string  `json:"valid_until" binding:"required"`
	MaxUses            *int    `json:"max_uses"`
	ApplicableEventIDs []int64 `json:"applicable_event_ids"`
}

func (h *DiscountHandler) Create(c *gin.Context) {
	var req CreateDiscountRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	validFrom, err := parseTime(req.ValidFrom)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid valid_from"})
		return
	}
	validUntil, err := parseTime(req.ValidUntil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid valid_until"})
		return
	}

	discount := &model.DiscountCode{
		Code:               req.Code,
		Type:               model.DiscountType(req.Type),
		Value:              req.Value,
		ValidFrom:          validFrom,
		ValidUntil:         validUntil,
		MaxUses:            req.MaxUses,
		ApplicableEventIDs: req.ApplicableEventIDs,
	}

	created, err := h.service.Create(c, discount)
	if err != nil {
		h.handleError(c, err, "Create")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// Validate 唯讀驗證：回報折扣金額但不消耗使用次數。
// 驗證失敗不是伺服器錯誤，以 200 回傳 valid=false 與原因。
func (h *DiscountHandler) Validate(c *gin.Context) {
	var req model.ValidateDiscountRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	amount, err := h.service.Validate(c, req.Code, req.EventID, req.Subtotal)
	if err != nil {
		if isDiscountError(err) || errors.Is(err, apperrors.ErrInvalidInput) {
			c.JSON(http.StatusOK, model.ValidateDiscountResponse{
				Valid:  false,
				Reason: err.Error(),
			})
			return
		}
		h.handleError(c, err, "Validate")
		return
	}

	c.JSON(http.StatusOK, model.ValidateDiscountResponse{
		Valid:          true,
		DiscountAmount: amount,
	})
}

func (h *DiscountHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
