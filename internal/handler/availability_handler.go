package handler

import (
	"errors"
	"net/http"

	"go-ticket-storefront/internal/inventory"
	apperrors "go-ticket-storefront/pkg/app_errors"
	"go-ticket-storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler 可售數量輪詢端點。回傳值是建議性的：
// 到了下單那一刻仍以預訂引擎的原子檢查為準。
type AvailabilityHandler struct {
	engine *inventory.Engine
}

func NewAvailabilityHandler(engine *inventory.Engine) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine}
}

func (h *AvailabilityHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("availability", h.GetAvailability)
		router.POST("availability/batch", h.GetAvailabilityBatch)
	}
}

// AvailabilityQuery 單筆查詢參數
type AvailabilityQuery struct {
	EventID      int `form:"event_id" binding:"required"`
	TicketTypeID int `form:"ticket_type_id" binding:"required"`
}

// AvailabilityBatchRequest 批次查詢請求，購物車整車輪詢用
type AvailabilityBatchRequest struct {
	Pairs []AvailabilityQuery `json:"pairs" binding:"required,min=1,dive"`
}

type AvailabilityItem struct {
	EventID      int `json:"event_id"`
	TicketTypeID int `json:"ticket_type_id"`
	Available    int `json:"available"`
	Capacity     int `json:"capacity"`
}

func (h *AvailabilityHandler) GetAvailability(c *gin.Context) {
	var query AvailabilityQuery
	if err := BindQuery(c, &query); err != nil {
		return
	}

	av, err := h.engine.Availability(c, query.EventID, query.TicketTypeID)
	if err != nil {
		h.handleError(c, err, "GetAvailability")
		return
	}

	c.JSON(http.StatusOK, AvailabilityItem{
		EventID:      query.EventID,
		TicketTypeID: query.TicketTypeID,
		Available:    av.Available,
		Capacity:     av.Capacity,
	})
}

func (h *AvailabilityHandler) GetAvailabilityBatch(c *gin.Context) {
	var req AvailabilityBatchRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	keys := make([]inventory.Key, 0, len(req.Pairs))
	for _, pair := range req.Pairs {
		keys = append(keys, inventory.Key{EventID: pair.EventID, TicketTypeID: pair.TicketTypeID})
	}

	result, err := h.engine.AvailabilityBatch(c, keys)
	if err != nil {
		h.handleError(c, err, "GetAvailabilityBatch")
		return
	}

	items := make([]AvailabilityItem, 0, len(keys))
	for _, key := range keys {
		av := result[key]
		items = append(items, AvailabilityItem{
			EventID:      key.EventID,
			TicketTypeID: key.TicketTypeID,
			Available:    av.Available,
			Capacity:     av.Capacity,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *AvailabilityHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTicketTypeNotFound):
		log.Warn("Ticket type not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket type not found"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
