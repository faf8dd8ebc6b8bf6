package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gauravghatol/CREA-Final-sub001/models"
	"github.com/gauravghatol/CREA-Final-sub001/services"
)

func newRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func record(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return record(r, newRequest(method, path, body))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func orderRouter(intake *fakeIntake, issuer *fakeIssuer, status *fakeStatus) *gin.Engine {
	oc := NewOrderController(intake, issuer, status, quietLogger())
	r := gin.New()
	r.POST("/orders", oc.CreateOrder)
	r.GET("/orders/:id", oc.GetOrder)
	return r
}

const intakeBody = `{"kind":"membership","amount":50000,"payerFields":{"name":"Asha Patil","email":"asha@example.com","phone":"9876543210"}}`

func TestCreateOrder(t *testing.T) {
	var got services.IntakeRequest
	intake := &fakeIntake{IntakeFn: func(_ context.Context, req services.IntakeRequest) (*models.PayableOrder, error) {
		got = req
		return &models.PayableOrder{ID: "rec-1", Amount: req.Amount, Currency: "INR"}, nil
	}}
	issuer := &fakeIssuer{IssueFn: func(_ context.Context, o *models.PayableOrder) (*services.IssuedOrder, error) {
		return &services.IssuedOrder{OrderID: o.ID, GatewayOrderID: "order_A", GatewayPublicKey: "rzp_test", Amount: o.Amount, Currency: o.Currency}, nil
	}}

	w := serve(orderRouter(intake, issuer, nil), http.MethodPost, "/orders", intakeBody)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.KindMembership, got.Kind)
	assert.Equal(t, "asha@example.com", got.PayerFields.Email)
	body := decode(t, w)
	assert.Equal(t, "rec-1", body["orderId"])
	assert.Equal(t, "order_A", body["gatewayOrderId"])
	assert.Equal(t, "rzp_test", body["gatewayPublicKey"])
}

func TestCreateOrderErrors(t *testing.T) {
	issueNever := &fakeIssuer{IssueFn: func(context.Context, *models.PayableOrder) (*services.IssuedOrder, error) {
		t.Fatal("issuance must not run after a rejected intake")
		return nil, nil
	}}

	t.Run("malformed body", func(t *testing.T) {
		w := serve(orderRouter(nil, issueNever, nil), http.MethodPost, "/orders", `{"kind":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation", func(t *testing.T) {
		intake := &fakeIntake{IntakeFn: func(context.Context, services.IntakeRequest) (*models.PayableOrder, error) {
			return nil, &services.ValidationError{Fields: map[string]string{"email": "must be a valid email"}}
		}}
		w := serve(orderRouter(intake, issueNever, nil), http.MethodPost, "/orders", intakeBody)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, map[string]interface{}{"email": "must be a valid email"}, decode(t, w)["fields"])
	})

	t.Run("duplicate payer", func(t *testing.T) {
		intake := &fakeIntake{IntakeFn: func(context.Context, services.IntakeRequest) (*models.PayableOrder, error) {
			return nil, &services.DuplicatePayerError{Kind: "membership", Email: "asha@example.com"}
		}}
		w := serve(orderRouter(intake, issueNever, nil), http.MethodPost, "/orders", intakeBody)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "duplicate_payer", decode(t, w)["code"])
	})

	t.Run("gateway unavailable", func(t *testing.T) {
		intake := &fakeIntake{IntakeFn: func(context.Context, services.IntakeRequest) (*models.PayableOrder, error) {
			return &models.PayableOrder{ID: "rec-9"}, nil
		}}
		issuer := &fakeIssuer{IssueFn: func(context.Context, *models.PayableOrder) (*services.IssuedOrder, error) {
			return nil, &services.GatewayUnavailableError{OrderID: "rec-9", Err: context.DeadlineExceeded}
		}}
		w := serve(orderRouter(intake, issuer, nil), http.MethodPost, "/orders", intakeBody)
		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "rec-9", decode(t, w)["orderId"])
	})

	t.Run("unexpected error hides detail", func(t *testing.T) {
		intake := &fakeIntake{IntakeFn: func(context.Context, services.IntakeRequest) (*models.PayableOrder, error) {
			return nil, errors.New("pq: connection refused")
		}}
		w := serve(orderRouter(intake, issueNever, nil), http.MethodPost, "/orders", intakeBody)
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestGetOrder(t *testing.T) {
	status := &fakeStatus{StatusFn: func(_ context.Context, id string) (*services.OrderStatusView, error) {
		if id != "rec-1" {
			return nil, gorm.ErrRecordNotFound
		}
		return &services.OrderStatusView{
			OrderID:         id,
			Kind:            models.KindMembership,
			PaymentStatus:   models.PaymentCompleted,
			LifecycleStatus: models.LifecycleExpired,
		}, nil
	}}
	r := orderRouter(nil, nil, status)

	w := serve(r, http.MethodGet, "/orders/rec-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "completed", body["paymentStatus"])
	assert.Equal(t, "expired", body["lifecycleStatus"])

	w = serve(r, http.MethodGet, "/orders/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
