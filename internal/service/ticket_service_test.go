package service

import (
	"context"
	"testing"

	"go-ticket-storefront/internal/model"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTicket(t *testing.T, repo *memTicketRepo, ticket *model.Ticket) *model.Ticket {
	t.Helper()
	require.NoError(t, repo.CreateBatch(context.Background(), []*model.Ticket{ticket}))
	return ticket
}

func TestRedeemTicket(t *testing.T) {
	ctx := context.Background()
	repo := newMemTicketRepo()
	seedTicket(t, repo, &model.Ticket{OrderID: 1, EventID: 1, TicketTypeID: 10, RedemptionCode: "ABC123"})
	svc := NewTicketService(repo)

	ticket, err := svc.RedeemTicket(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, ticket.Used)

	// 第二次掃描必須被拒絕
	_, err = svc.RedeemTicket(ctx, "ABC123")
	assert.ErrorIs(t, err, apperrors.ErrTicketUsed)
}

func TestRedeemTicket_Void(t *testing.T) {
	ctx := context.Background()
	repo := newMemTicketRepo()
	seedTicket(t, repo, &model.Ticket{OrderID: 1, EventID: 1, TicketTypeID: 10, RedemptionCode: "DEF456", Void: true})
	svc := NewTicketService(repo)

	_, err := svc.RedeemTicket(ctx, "DEF456")
	assert.ErrorIs(t, err, apperrors.ErrTicketVoid)
}

func TestRedeemTicket_UnknownCode(t *testing.T) {
	svc := NewTicketService(newMemTicketRepo())

	_, err := svc.RedeemTicket(context.Background(), "MISSING")
	assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)

	_, err = svc.RedeemTicket(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
