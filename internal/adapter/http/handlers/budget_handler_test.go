package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"traiteur_devis/internal/adapter/http/handlers/mocks"
	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/infrastructure/logging"
	"traiteur_devis/internal/usecase"
)

func newBudgetRouter(t *testing.T) (*gin.Engine, *mocks.MockIBudgetUseCase) {
	t.Helper()
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIBudgetUseCase(ctrl)
	h := NewBudgetHandler(uc, logging.Discard())

	r := gin.New()
	r.POST("/v1/orders/:id/budget", h.GenerateBudget)
	r.GET("/v1/orders/:id/budget", h.GetBudgetByOrder)
	r.GET("/v1/budgets/:id", h.GetBudget)
	r.PUT("/v1/budgets/:id", h.EditBudget)
	r.GET("/v1/budgets/:id/history", h.GetHistory)
	r.POST("/v1/budgets/:id/pdf", h.GeneratePDF)
	r.POST("/v1/budgets/:id/approve", h.ApproveAndSend)
	r.POST("/v1/budgets/:id/mark-sent", h.MarkSent)
	r.POST("/v1/budgets/:id/reject", h.RejectBudget)
	return r, uc
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sampleBudget() entities.Budget {
	return entities.Budget{
		ID:         "b-1",
		OrderID:    "o-1",
		Version:    1,
		Status:     entities.BudgetStatusPendingReview,
		Strategy:   "rules",
		BudgetData: entities.BudgetData{Totals: entities.Totals{TotalTTC: 1930.5}},
	}
}

func TestBudgetHandler_GenerateBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("default author and strategy from query", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().GenerateBudget(gomock.Any(), "o-1", "assistant", "admin").Return(sampleBudget(), nil)

		w := serve(r, http.MethodPost, "/v1/orders/o-1/budget?strategy=assistant", "")
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["id"] != "b-1" || body["totalTTC"] != 1930.5 {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("explicit author", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().GenerateBudget(gomock.Any(), "o-1", "", "marie").Return(sampleBudget(), nil)

		w := serve(r, http.MethodPost, "/v1/orders/o-1/budget", `{"generatedBy":" marie "}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
	})

	errorCases := []struct {
		name string
		err  error
		want int
		code string
	}{
		{name: "order not found", err: usecase.ErrOrderNotFound, want: http.StatusNotFound, code: "ORDER_NOT_FOUND"},
		{name: "already exists", err: usecase.ErrBudgetAlreadyExists, want: http.StatusConflict, code: "BUDGET_ALREADY_EXISTS"},
		{name: "assistant unparseable", err: fmt.Errorf("%w: missing totals", entities.ErrUpstreamParse), want: http.StatusBadGateway, code: "PRICING_RESPONSE_INVALID"},
		{name: "does not reconcile", err: fmt.Errorf("%w: totals", entities.ErrInvariantViolation), want: http.StatusInternalServerError, code: "INVARIANT_VIOLATION"},
		{name: "strategy unavailable", err: usecase.ErrStrategyUnavailable, want: http.StatusServiceUnavailable, code: "STRATEGY_UNAVAILABLE"},
		{name: "invalid order", err: entities.NewValidationError("contactData.email", "is required"), want: http.StatusBadRequest, code: "INVALID_REQUEST"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			r, uc := newBudgetRouter(t)
			uc.EXPECT().GenerateBudget(gomock.Any(), "o-1", "", "admin").Return(entities.Budget{}, tc.err)

			w := serve(r, http.MethodPost, "/v1/orders/o-1/budget", "")
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			var body map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["code"] != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, w.Body.String())
			}
		})
	}
}

func TestBudgetHandler_EditBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid payload", func(t *testing.T) {
		r, _ := newBudgetRouter(t)
		w := serve(r, http.MethodPut, "/v1/budgets/b-1", `{"budgetData":`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("version conflict", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().EditBudget(gomock.Any(), "b-1", gomock.Any()).Return(entities.Budget{}, usecase.ErrVersionConflict)

		w := serve(r, http.MethodPut, "/v1/budgets/b-1", `{"budgetData":{"menu":{}},"editedBy":"admin"}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		edited := sampleBudget()
		edited.Version = 2
		uc.EXPECT().EditBudget(gomock.Any(), "b-1", gomock.Any()).DoAndReturn(func(_ any, _ string, cmd usecase.EditBudgetCommand) (entities.Budget, error) {
			if cmd.EditedBy != "admin" || cmd.Summary != "ajout service" || !cmd.Recalculate {
				t.Fatalf("unexpected command: %+v", cmd)
			}
			if cmd.BudgetData.Service.IsPresent() {
				t.Fatalf("null service must decode as absent")
			}
			return edited, nil
		})

		w := serve(r, http.MethodPut, "/v1/budgets/b-1", `{"budgetData":{"menu":{},"service":null},"editedBy":"admin","summary":"ajout service","recalculate":true}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["version"] != float64(2) {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestBudgetHandler_Actions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("approve without pdf", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().ApproveAndSend(gomock.Any(), "b-1", "admin").Return(entities.Budget{}, usecase.ErrPDFMissing)

		w := serve(r, http.MethodPost, "/v1/budgets/b-1/approve", `{"actor":"admin"}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "PDF_MISSING" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("approve delivery failed", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().ApproveAndSend(gomock.Any(), "b-1", "admin").
			Return(entities.Budget{}, entities.NewDependencyError("mail", fmt.Errorf("smtp down")))

		w := serve(r, http.MethodPost, "/v1/budgets/b-1/approve", `{"actor":"admin"}`)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})

	t.Run("approve rollback failed", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		sendErr := entities.NewDependencyError("mail", fmt.Errorf("smtp down"))
		uc.EXPECT().ApproveAndSend(gomock.Any(), "b-1", "admin").
			Return(entities.Budget{}, errors.Join(sendErr, fmt.Errorf("%w: table unavailable", usecase.ErrRollbackFailed)))

		w := serve(r, http.MethodPost, "/v1/budgets/b-1/approve", `{"actor":"admin"}`)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["code"] != "APPROVAL_ROLLBACK_FAILED" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("mark sent", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		sent := sampleBudget()
		sent.Status = entities.BudgetStatusSent
		uc.EXPECT().MarkSent(gomock.Any(), "b-1", "admin").Return(sent, nil)

		w := serve(r, http.MethodPost, "/v1/budgets/b-1/mark-sent", `{"actor":"admin"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("reject invalid transition", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().RejectBudget(gomock.Any(), "b-1", "admin", "hors zone").Return(entities.Budget{}, usecase.ErrInvalidTransition)

		w := serve(r, http.MethodPost, "/v1/budgets/b-1/reject", `{"actor":"admin","reason":"hors zone"}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("missing body", func(t *testing.T) {
		r, _ := newBudgetRouter(t)
		w := serve(r, http.MethodPost, "/v1/budgets/b-1/approve", "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("pdf", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		url := "https://files.traiteur.test/budgets/b-1/v1.pdf"
		withPDF := sampleBudget()
		withPDF.PDFURL = &url
		uc.EXPECT().GeneratePDF(gomock.Any(), "b-1").Return(withPDF, nil)

		w := serve(r, http.MethodPost, "/v1/budgets/b-1/pdf", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body["pdfUrl"] != url {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}

func TestBudgetHandler_Reads(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("get budget not found", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().GetByID(gomock.Any(), "b-9").Return(entities.Budget{}, usecase.ErrBudgetNotFound)

		w := serve(r, http.MethodGet, "/v1/budgets/b-9", "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("get by order", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().GetByOrderID(gomock.Any(), "o-1").Return(sampleBudget(), nil)

		w := serve(r, http.MethodGet, "/v1/orders/o-1/budget", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("history", func(t *testing.T) {
		r, uc := newBudgetRouter(t)
		uc.EXPECT().GetHistory(gomock.Any(), "b-1").Return(entities.BudgetHistory{
			BudgetID: "b-1",
			Version:  2,
			VersionHistory: []entities.VersionHistoryEntry{
				{Version: 2, ChangedBy: "admin", Summary: "Modification : service"},
			},
		}, nil)

		w := serve(r, http.MethodGet, "/v1/budgets/b-1/history", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var body struct {
			VersionHistory []entities.VersionHistoryEntry `json:"versionHistory"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if len(body.VersionHistory) != 1 || body.VersionHistory[0].ChangedBy != "admin" {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})
}
