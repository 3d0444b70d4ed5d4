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

// TicketHandler 掃描端核銷入口
type TicketHandler struct {
	service service.TicketService
}

func NewTicketHandler(service service.TicketService) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) RegisterRoutes(r *gin.Engine) {
	router := r.Group("/api/v1")
	{
		router.POST("tickets/redeem", h.RedeemTicket)
	}
}

func (h *TicketHandler) RedeemTicket(c *gin.Context) {
	var req model.RedeemTicketRequest
	if err := BindJson(c, &req); err != nil {
		return
	}

	ticket, err := h.service.RedeemTicket(c, req.Code)
	if err != nil {
		h.handleError(c, err, "RedeemTicket")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
	case errors.Is(err, apperrors.ErrTicketUsed):
		log.Warn("Ticket already used")
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket already used"})
	case errors.Is(err, apperrors.ErrTicketVoid):
		log.Warn("Ticket voided")
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket voided"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	default:
		log.Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
