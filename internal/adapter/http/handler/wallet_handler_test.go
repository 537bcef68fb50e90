package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-settlement/internal/adapter/http/middleware"
	"marketplace-settlement/internal/core/domain"
	"marketplace-settlement/internal/core/ports/mocks"
	"marketplace-settlement/pkg/apperror"
	"marketplace-settlement/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newWalletTestRouter(t *testing.T, authUserID *uuid.UUID) (*gin.Engine, *mocks.MockLedgerService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	ledgerSvc := mocks.NewMockLedgerService(ctrl)
	h := NewWalletHandler(ledgerSvc)

	router := gin.New()
	if authUserID != nil {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.CtxUserID, *authUserID)
			c.Next()
		})
	}
	router.GET("/wallets/balance", h.GetMyBalance)
	router.POST("/admin/wallets", h.CreateWallet)
	router.GET("/admin/wallets/:seller_id/balance", h.GetBalance)
	router.POST("/admin/wallets/:seller_id/adjust", h.Adjust)
	return router, ledgerSvc
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope response.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	return data
}

func TestWalletHandler_GetMyBalance(t *testing.T) {
	userID := uuid.New()
	router, ledgerSvc := newWalletTestRouter(t, &userID)

	ledgerSvc.EXPECT().BalanceOf(gomock.Any(), userID).Return(int64(1500), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wallets/balance", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, userID.String(), data["seller_id"])
	assert.Equal(t, float64(1500), data["balance"])
}

func TestWalletHandler_GetMyBalance_Unauthenticated(t *testing.T) {
	router, _ := newWalletTestRouter(t, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/wallets/balance", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_001")
}

func TestWalletHandler_CreateWallet(t *testing.T) {
	userID := uuid.New()
	router, ledgerSvc := newWalletTestRouter(t, &userID)

	sellerID := uuid.New()
	ledgerSvc.EXPECT().CreateWallet(gomock.Any(), sellerID).Return(&domain.SellerWallet{
		SellerID:  sellerID,
		Balance:   0,
		CreatedAt: time.Now().UTC(),
	}, nil)

	body, _ := json.Marshal(map[string]string{"seller_id": sellerID.String()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wallets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, sellerID.String(), data["seller_id"])
	assert.Equal(t, float64(0), data["balance"])
}

func TestWalletHandler_CreateWallet_BadSellerID(t *testing.T) {
	userID := uuid.New()
	router, _ := newWalletTestRouter(t, &userID)

	body := []byte(`{"seller_id": "not-a-uuid"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wallets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletHandler_GetBalance_NotFound(t *testing.T) {
	userID := uuid.New()
	router, ledgerSvc := newWalletTestRouter(t, &userID)

	sellerID := uuid.New()
	ledgerSvc.EXPECT().BalanceOf(gomock.Any(), sellerID).
		Return(int64(0), apperror.ErrWalletNotFound(sellerID.String()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/wallets/"+sellerID.String()+"/balance", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "LGR_001")
}

func TestWalletHandler_Adjust(t *testing.T) {
	userID := uuid.New()
	router, ledgerSvc := newWalletTestRouter(t, &userID)

	sellerID := uuid.New()
	ledgerSvc.EXPECT().Adjust(gomock.Any(), sellerID, int64(-400)).Return(int64(600), nil)

	body := []byte(`{"delta": -400}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wallets/"+sellerID.String()+"/adjust", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, float64(600), data["balance"])
	assert.Equal(t, float64(-400), data["delta"])
}

func TestWalletHandler_Adjust_WouldGoNegative(t *testing.T) {
	userID := uuid.New()
	router, ledgerSvc := newWalletTestRouter(t, &userID)

	sellerID := uuid.New()
	ledgerSvc.EXPECT().Adjust(gomock.Any(), sellerID, int64(-500)).
		Return(int64(0), apperror.ErrAdjustmentWouldGoNegative(300, -500))

	body := []byte(`{"delta": -500}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/wallets/"+sellerID.String()+"/adjust", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "LGR_003")
}
