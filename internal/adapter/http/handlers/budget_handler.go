package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	request "traiteur_devis/internal/adapter/http/dto/request"
	response "traiteur_devis/internal/adapter/http/dto/response"
	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/internal/usecase"
	"traiteur_devis/pkg"
)

// defaultGenerator is recorded as generatedBy when the admin UI sends no name.
const defaultGenerator = "admin"

var errInvalidBudgetPayload = pkg.NewDomainErrorSimple("INVALID_BUDGET_INPUT", "Invalid budget payload", http.StatusBadRequest)

// BudgetHandler serves the admin budget workflow. Admin routes are not
// authenticated.
type BudgetHandler struct {
	usecase usecase.IBudgetUseCase
	log     *logrus.Logger
}

func NewBudgetHandler(uc usecase.IBudgetUseCase, log *logrus.Logger) *BudgetHandler {
	return &BudgetHandler{usecase: uc, log: log}
}

// GenerateBudget godoc
// @Summary Price an order and create its budget
// @Tags budgets
// @Accept json
// @Produce json
// @Param id path string true "Order ID"
// @Param strategy query string false "rules or assistant"
// @Param body body request.GenerateBudgetRequest false "Author"
// @Success 201 {object} response.BudgetResponse
// @Failure 400 {object} pkg.HTTPError
// @Failure 404 {object} pkg.HTTPError
// @Failure 409 {object} pkg.HTTPError
// @Failure 502 {object} pkg.HTTPError
// @Router /orders/{id}/budget [post]
func (h *BudgetHandler) GenerateBudget(c *gin.Context) {
	var payload request.GenerateBudgetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			writeError(c, errInvalidBudgetPayload)
			return
		}
	}
	generatedBy := strings.TrimSpace(payload.GeneratedBy)
	if generatedBy == "" {
		generatedBy = defaultGenerator
	}

	budget, err := h.usecase.GenerateBudget(c.Request.Context(), c.Param("id"), c.Query("strategy"), generatedBy)
	if err != nil {
		h.log.WithError(err).WithField("order_id", c.Param("id")).Warn("[budget][handler] generate failed")
		writeError(c, mapBudgetError(err))
		return
	}
	c.JSON(http.StatusCreated, response.FromBudget(budget))
}

// GetBudgetByOrder godoc
// @Summary Get the budget of an order
// @Tags budgets
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.BudgetResponse
// @Failure 404 {object} pkg.HTTPError
// @Router /orders/{id}/budget [get]
func (h *BudgetHandler) GetBudgetByOrder(c *gin.Context) {
	budget, err := h.usecase.GetByOrderID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, mapBudgetError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromBudget(budget))
}

// GetBudget godoc
// @Summary Get a budget
// @Tags budgets
// @Produce json
// @Param id path string true "Budget ID"
// @Success 200 {object} response.BudgetResponse
// @Failure 404 {object} pkg.HTTPError
// @Router /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	budget, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, mapBudgetError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromBudget(budget))
}

// EditBudget godoc
// @Summary Replace the budget data
// @Description Bumps the version, records the diff and returns the budget to review.
// @Tags budgets
// @Accept json
// @Produce json
// @Param id path string true "Budget ID"
// @Param body body request.EditBudgetRequest true "New budget data"
// @Success 200 {object} response.BudgetResponse
// @Failure 400 {object} pkg.HTTPError
// @Failure 409 {object} pkg.HTTPError
// @Router /budgets/{id} [put]
func (h *BudgetHandler) EditBudget(c *gin.Context) {
	var payload request.EditBudgetRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errInvalidBudgetPayload)
		return
	}

	budget, err := h.usecase.EditBudget(c.Request.Context(), c.Param("id"), payload.ToCommand())
	if err != nil {
		h.log.WithError(err).WithField("budget_id", c.Param("id")).Info("[budget][handler] edit failed")
		writeError(c, mapBudgetError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromBudget(budget))
}

// GetHistory godoc
// @Summary List the edits of a budget
// @Tags budgets
// @Produce json
// @Param id path string true "Budget ID"
// @Success 200 {object} response.BudgetHistoryResponse
// @Failure 404 {object} pkg.HTTPError
// @Router /budgets/{id}/history [get]
func (h *BudgetHandler) GetHistory(c *gin.Context) {
	history, err := h.usecase.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, mapBudgetError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromBudgetHistory(history))
}

// GeneratePDF godoc
// @Summary Render and store the budget PDF
// @Tags budgets
// @Produce json
// @Param id path string true "Budget ID"
// @Success 200 {object} response.BudgetResponse
// @Failure 409 {object} pkg.HTTPError
// @Failure 502 {object} pkg.HTTPError
// @Router /budgets/{id}/pdf [post]
func (h *BudgetHandler) GeneratePDF(c *gin.Context) {
	budget, err := h.usecase.GeneratePDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.WithError(err).WithField("budget_id", c.Param("id")).Warn("[budget][handler] pdf failed")
		writeError(c, mapBudgetError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromBudget(budget))
}

// ApproveAndSend godoc
// @Summary Approve a budget and e-mail it to the client
// @Tags budgets
// @Accept json
// @Produce json
// @Param id path string true "Budget ID"
// @Param body body request.BudgetActionRequest true "Approver"
// @Success 200 {object} response.BudgetResponse
// @Failure 409 {object} pkg.HTTPError
// @Failure 502 {object} pkg.HTTPError
// @Router /budgets/{id}/approve [post]
func (h *BudgetHandler) ApproveAndSend(c *gin.Context) {
	h.applyAction(c, func(payload request.BudgetActionRequest) (entities.Budget, error) {
		return h.usecase.ApproveAndSend(c.Request.Context(), c.Param("id"), payload.Actor)
	})
}

// MarkSent godoc
// @Summary Mark a budget as sent without e-mailing it
// @Tags budgets
// @Accept json
// @Produce json
// @Param id path string true "Budget ID"
// @Param body body request.BudgetActionRequest true "Sender"
// @Success 200 {object} response.BudgetResponse
// @Failure 409 {object} pkg.HTTPError
// @Router /budgets/{id}/mark-sent [post]
func (h *BudgetHandler) MarkSent(c *gin.Context) {
	h.applyAction(c, func(payload request.BudgetActionRequest) (entities.Budget, error) {
		return h.usecase.MarkSent(c.Request.Context(), c.Param("id"), payload.Actor)
	})
}

// RejectBudget godoc
// @Summary Reject a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Param id path string true "Budget ID"
// @Param body body request.BudgetActionRequest true "Reviewer and reason"
// @Success 200 {object} response.BudgetResponse
// @Failure 409 {object} pkg.HTTPError
// @Router /budgets/{id}/reject [post]
func (h *BudgetHandler) RejectBudget(c *gin.Context) {
	h.applyAction(c, func(payload request.BudgetActionRequest) (entities.Budget, error) {
		return h.usecase.RejectBudget(c.Request.Context(), c.Param("id"), payload.Actor, payload.Reason)
	})
}

func (h *BudgetHandler) applyAction(c *gin.Context, action func(request.BudgetActionRequest) (entities.Budget, error)) {
	var payload request.BudgetActionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errInvalidBudgetPayload)
		return
	}

	budget, err := action(payload)
	if err != nil {
		h.log.WithError(err).WithFields(logrus.Fields{"budget_id": c.Param("id"), "path": c.FullPath()}).Info("[budget][handler] action failed")
		writeError(c, mapBudgetError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromBudget(budget))
}

func mapBudgetError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrRollbackFailed):
		return pkg.NewDomainErrorSimple("APPROVAL_ROLLBACK_FAILED", "The e-mail was not sent and the budget is still marked approved", http.StatusInternalServerError)
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrBudgetNotFound):
		return pkg.NewDomainErrorSimple("BUDGET_NOT_FOUND", "Budget not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrBudgetAlreadyExists):
		return pkg.NewDomainErrorSimple("BUDGET_ALREADY_EXISTS", "A budget already exists for this order", http.StatusConflict)
	case errors.Is(err, usecase.ErrPDFMissing):
		return pkg.NewDomainErrorSimple("PDF_MISSING", "Generate the budget PDF first", http.StatusConflict)
	case errors.Is(err, usecase.ErrInvalidTransition):
		return pkg.NewDomainErrorSimple("INVALID_STATUS_TRANSITION", "Action not allowed in the current budget status", http.StatusConflict)
	case errors.Is(err, usecase.ErrVersionConflict):
		return pkg.NewDomainErrorSimple("VERSION_CONFLICT", "The budget was modified concurrently, reload and retry", http.StatusConflict)
	case errors.Is(err, usecase.ErrStrategyUnavailable):
		return pkg.NewDomainErrorSimple("STRATEGY_UNAVAILABLE", "Pricing strategy not configured", http.StatusServiceUnavailable)
	default:
		return mapKindError(err)
	}
}
