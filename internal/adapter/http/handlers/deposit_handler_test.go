package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"traiteur_devis/internal/adapter/http/handlers/mocks"
	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/infrastructure/logging"
	"traiteur_devis/internal/usecase"
)

func newDepositRouter(t *testing.T, mockMode bool) (*gin.Engine, *mocks.MockIDepositUseCase) {
	t.Helper()
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIDepositUseCase(ctrl)
	h := NewDepositHandler(uc, mockMode, logging.Discard())

	r := gin.New()
	r.POST("/v1/deposits/:budget_id", h.CreateDeposit)
	r.GET("/v1/deposits/:budget_id", h.GetLatestDeposit)
	r.GET("/v1/budgets/:id/deposits", h.ListBudgetDeposits)
	r.GET("/v1/deposit-payments/:id", h.GetDeposit)
	return r, uc
}

func TestDepositHandler_CreateDeposit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid payload", func(t *testing.T) {
		r, _ := newDepositRouter(t, false)
		w := serve(r, http.MethodPost, "/v1/deposits/b-1", "{")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("invalid payload in mock mode", func(t *testing.T) {
		r, uc := newDepositRouter(t, true)
		uc.EXPECT().CreateAndApprove(gomock.Any(), "b-1", json.RawMessage("{}")).
			Return(entities.DepositPayment{ID: "dep-1", BudgetID: "b-1", Status: entities.DepositStatusApproved}, nil)

		w := serve(r, http.MethodPost, "/v1/deposits/b-1", "{")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("wrapped payload", func(t *testing.T) {
		r, uc := newDepositRouter(t, false)
		uc.EXPECT().CreateAndApprove(gomock.Any(), "b-1", gomock.Any()).DoAndReturn(func(_ any, _ string, payload json.RawMessage) (entities.DepositPayment, error) {
			var got map[string]any
			_ = json.Unmarshal(payload, &got)
			if got["payment_method_id"] != "pix" {
				t.Fatalf("envelope not unwrapped: %s", payload)
			}
			return entities.DepositPayment{ID: "dep-1", BudgetID: "b-1", Amount: 579.15, Date: time.Now().UTC(), Status: entities.DepositStatusApproved}, nil
		})

		w := serve(r, http.MethodPost, "/v1/deposits/b-1", `{"mp_payload":{"payment_method_id":"pix","payer":{"email":"x@test.com"}}}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["payment_id"] != "dep-1" || body["amount"] != 579.15 {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("empty envelope", func(t *testing.T) {
		r, _ := newDepositRouter(t, false)
		w := serve(r, http.MethodPost, "/v1/deposits/b-1", `{"mp_payload":null}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	errorCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "budget not approved", err: usecase.ErrBudgetNotApproved, want: http.StatusConflict},
		{name: "budget not found", err: usecase.ErrBudgetNotFound, want: http.StatusNotFound},
		{name: "gateway unauthorized", err: usecase.ErrPaymentGatewayUnauthorized, want: http.StatusUnauthorized},
		{name: "gateway bad request", err: usecase.ErrPaymentGatewayBadRequest, want: http.StatusBadRequest},
		{name: "invalid users", err: usecase.ErrPaymentGatewayInvalidUsers, want: http.StatusBadRequest},
		{name: "provider payload", err: usecase.ErrInvalidProviderPayload, want: http.StatusBadRequest},
		{name: "gateway down", err: entities.NewDependencyError("payment gateway", errors.New("timeout")), want: http.StatusBadGateway},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			r, uc := newDepositRouter(t, false)
			uc.EXPECT().CreateAndApprove(gomock.Any(), "b-1", gomock.Any()).Return(entities.DepositPayment{}, tc.err)

			w := serve(r, http.MethodPost, "/v1/deposits/b-1", `{"payment_method_id":"pix"}`)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestDepositHandler_Reads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("latest of several", func(t *testing.T) {
		r, uc := newDepositRouter(t, false)
		now := time.Now().UTC()
		uc.EXPECT().ListByBudgetID(gomock.Any(), "b-1").Return([]entities.DepositPayment{
			{ID: "dep-1", BudgetID: "b-1", Date: now.Add(-time.Hour), Status: entities.DepositStatusDenied},
			{ID: "dep-2", BudgetID: "b-1", Date: now, Status: entities.DepositStatusApproved},
		}, nil)

		w := serve(r, http.MethodGet, "/v1/deposits/b-1", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["id"] != "dep-2" {
			t.Fatalf("expected the latest deposit, got %s", w.Body.String())
		}
	})

	t.Run("none yet", func(t *testing.T) {
		r, uc := newDepositRouter(t, false)
		uc.EXPECT().ListByBudgetID(gomock.Any(), "b-1").Return([]entities.DepositPayment{}, nil)

		w := serve(r, http.MethodGet, "/v1/deposits/b-1", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("list", func(t *testing.T) {
		r, uc := newDepositRouter(t, false)
		uc.EXPECT().ListByBudgetID(gomock.Any(), "b-1").Return([]entities.DepositPayment{{ID: "dep-1"}}, nil)

		w := serve(r, http.MethodGet, "/v1/budgets/b-1/deposits", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body []map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if len(body) != 1 {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("by id not found", func(t *testing.T) {
		r, uc := newDepositRouter(t, false)
		uc.EXPECT().GetByID(gomock.Any(), "dep-9").Return(entities.DepositPayment{}, usecase.ErrDepositNotFound)

		w := serve(r, http.MethodGet, "/v1/deposit-payments/dep-9", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestPing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/ping", Ping)

	w := serve(r, http.MethodGet, "/v1/ping", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"message":"pong"}` {
		t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
	}
}
