package handler

import (
	"errors"
	"net/http"

	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/service"
	apperrors "go-ticket-storefront/pkg/app_errors"
	"go-ticket-storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TicketTypeHandler struct {
	service service.TicketTypeService
}

func NewTicketTypeHandler(service service.TicketTypeService) *TicketTypeHandler {
	return &TicketTypeHandler{service: service}
}

func (h *TicketTypeHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.GET("events/:uuid/ticket-types", h.ListByEventID)
		router.GET("ticket-types/:uuid", h.GetByTicketTypeID)
		router.POST("ticket-types", h.Create)
		router.PUT("ticket-types/:uuid", h.UpdateByTicketTypeID)
		router.DELETE("ticket-types/:uuid", h.DeleteByTicketTypeID)
	}
}

// CreateTicketTypeRequest 建立票種請求
type CreateTicketTypeRequest struct {
	EventID    int     `json:"event_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Price      float64 `json:"price" binding:"required"`
	Capacity   int     `json:"capacity" binding:"required"`
	MaxPerUser int     `json:"max_per_user"`
}

// UpdateTicketTypeRequest 更新票種請求
type UpdateTicketTypeRequest struct {
	Name       *string  `json:"name"`
	Price      *float64 `json:"price"`
	MaxPerUser *int     `json:"max_per_user"`
}

func (h *TicketTypeHandler) ListByEventID(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event uuid"})
		return
	}
	ticketTypes, err := h.service.ListByEventID(c, eventID)
	if err != nil {
		h.handleError(c, err, "ListByEventID")
		return
	}
	c.JSON(http.StatusOK, ticketTypes)
}

func (h *TicketTypeHandler) GetByTicketTypeID(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket type uuid"})
		return
	}
	ticketType, err := h.service.GetByTicketTypeID(c, ticketTypeID)
	if err != nil {
		h.handleError(c, err, "GetByTicketTypeID")
		return
	}
	c.JSON(http.StatusOK, ticketType)
}

func (h *TicketTypeHandler) Create(c *gin.Context) {
	var req CreateTicketTypeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	ticketType := &model.TicketType{
		EventID:    req.EventID,
		Name:       req.Name,
		Price:      req.Price,
		Capacity:   req.Capacity,
		MaxPerUser: req.MaxPerUser,
	}
	created, err := h.service.Create(c, ticketType)
	if err != nil {
		h.handleError(c, err, "Create")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *TicketTypeHandler) UpdateByTicketTypeID(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket type uuid"})
		return
	}
	var req UpdateTicketTypeRequest
	if err := BindJson(c, &req); err != nil {
		return
	}
	if req.Name == nil && req.Price == nil && req.MaxPerUser == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one of name, price or max_per_user is required"})
		return
	}
	params := model.UpdateTicketTypeParams{
		Name:       req.Name,
		Price:      req.Price,
		MaxPerUser: req.MaxPerUser,
	}
	updated, err := h.service.UpdateByTicketTypeID(c, ticketTypeID, params)
	if err != nil {
		h.handleError(c, err, "UpdateByTicketTypeID")
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *TicketTypeHandler) DeleteByTicketTypeID(c *gin.Context) {
	ticketTypeID, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ticket type uuid"})
		return
	}
	err = h.service.DeleteByTicketTypeID(c, ticketTypeID)
	if err != nil {
		h.handleError(c, err, "DeleteByTicketTypeID")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TicketTypeHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTicketTypeNotFound):
		log.Warn("Ticket type not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket type not found"})
	case errors.Is(err, apperrors.ErrEventNotFound):
		log.Warn("Event not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
