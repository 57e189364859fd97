package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"traiteur_devis/internal/adapter/http/handlers/mocks"
	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/infrastructure/logging"
	"traiteur_devis/internal/usecase"
)

const orderBody = `{
	"contactData": {"email": "claire@example.com", "name": "Claire Martin", "eventDate": "2026-06-20", "guestCount": 30},
	"menuType": "lunch",
	"entrees": ["burrata", "gaspacho"],
	"viandes": ["agneau"],
	"dessert": "tarte",
	"extras": {"wines": true}
}`

func TestOrderHandler_CreateOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOrderUseCase(ctrl)
		h := NewOrderHandler(uc, logging.Discard())

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOrderUseCase(ctrl)
		h := NewOrderHandler(uc, logging.Discard())

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		uc.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).
			Return(entities.Order{}, entities.ValidationErrors{entities.NewValidationError("contactData.guestCount", "must be greater than 0")})

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(orderBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "INVALID_REQUEST" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOrderUseCase(ctrl)
		h := NewOrderHandler(uc, logging.Discard())

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		uc.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).
			Return(entities.Order{}, entities.NewDependencyError("order storage", errors.New("timeout")))

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(orderBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		uc := mocks.NewMockIOrderUseCase(ctrl)
		h := NewOrderHandler(uc, logging.Discard())

		r := gin.New()
		r.POST("/v1/orders", h.CreateOrder)

		uc.EXPECT().SubmitOrder(gomock.Any(), gomock.Any()).DoAndReturn(func(_ any, o entities.Order) (entities.Order, error) {
			if o.ContactData.Email != "claire@example.com" || o.MenuType != entities.MenuTypeLunch || len(o.Entrees) != 2 {
				t.Fatalf("unexpected order passed to usecase: %+v", o)
			}
			o.ID = "o-1"
			o.Status = entities.OrderStatusPending
			o.CreatedAt = time.Now().UTC()
			return o, nil
		})

		req := httptest.NewRequest(http.MethodPost, "/v1/orders", bytes.NewBufferString(orderBody))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["id"] != "o-1" || body["status"] != "pending" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestOrderHandler_GetOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: usecase.ErrOrderNotFound, want: http.StatusNotFound},
		{name: "found", want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			uc := mocks.NewMockIOrderUseCase(ctrl)
			h := NewOrderHandler(uc, logging.Discard())

			r := gin.New()
			r.GET("/v1/orders/:id", h.GetOrder)

			order := entities.Order{}
			if tc.err == nil {
				order = entities.Order{ID: "o-1", Status: entities.OrderStatusPending}
			}
			uc.EXPECT().GetByID(gomock.Any(), "o-1").Return(order, tc.err)

			req := httptest.NewRequest(http.MethodGet, "/v1/orders/o-1", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}
