package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"go-ticket-storefront/internal/model"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDiscountService struct {
	mock.Mock
}

func (m *mockDiscountService) Validate(ctx context.Context, code string, eventID int, subtotal float64) (float64, error) {
	args := m.Called(ctx, code, eventID, subtotal)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockDiscountService) Create(ctx context.Context, discount *model.DiscountCode) (*model.DiscountCode, error) {
	args := m.Called(ctx, discount)
	if created := args.Get(0); created != nil {
		return created.(*model.DiscountCode), args.Error(1)
	}
	return nil, args.Error(1)
}

func setupDiscountRouter(svc *mockDiscountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewDiscountHandler(svc).RegisterRoutes(r)
	return r
}

func TestValidateDiscountHandler_Valid(t *testing.T) {
	svc := new(mockDiscountService)
	svc.On("Validate", mock.Anything, "SUMMER10", 1, 1000.0).Return(100.0, nil)
	r := setupDiscountRouter(svc)

	w := performJSON(r, http.MethodPost, "/api/v1/discounts/validate", model.ValidateDiscountRequest{
		Code: "SUMMER10", EventID: 1, Subtotal: 1000,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var got model.ValidateDiscountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Valid)
	assert.Equal(t, 100.0, got.DiscountAmount)
}

// 驗證失敗不是伺服器錯誤：200 + valid=false + 原因
func TestValidateDiscountHandler_Invalid(t *testing.T) {
	svc := new(mockDiscountService)
	svc.On("Validate", mock.Anything, "OLD", 1, 1000.0).Return(0.0, apperrors.ErrDiscountExpired)
	r := setupDiscountRouter(svc)

	w := performJSON(r, http.MethodPost, "/api/v1/discounts/validate", model.ValidateDiscountRequest{
		Code: "OLD", EventID: 1, Subtotal: 1000,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	var got model.ValidateDiscountResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.False(t, got.Valid)
	assert.Equal(t, apperrors.ErrDiscountExpired.Error(), got.Reason)
}

func TestCreateDiscountHandler(t *testing.T) {
	svc := new(mockDiscountService)
	svc.On("Create", mock.Anything, mock.Anything).
		Return(&model.DiscountCode{ID: 1, Code: "FALL25"}, nil)
	r := setupDiscountRouter(svc)

	w := performJSON(r, http.MethodPost, "/api/v1/discounts", gin.H{
		"code":        "fall25",
		"type":        "percentage",
		"value":       25,
		"valid_from":  "2025-09-01T00:00:00Z",
		"valid_until": "2025-09-30T23:59:59Z",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	svc.AssertExpectations(t)
}

func TestCreateDiscountHandler_BadDates(t *testing.T) {
	svc := new(mockDiscountService)
	r := setupDiscountRouter(svc)

	w := performJSON(r, http.MethodPost, "/api/v1/discounts", gin.H{
		"code":        "X",
		"type":        "percentage",
		"value":       10,
		"valid_from":  "not-a-date",
		"valid_until": "2025-09-30T23:59:59Z",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Create")
}
