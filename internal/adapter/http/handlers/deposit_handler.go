package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	response "traiteur_devis/internal/adapter/http/dto/response"
	"traiteur_devis/internal/usecase"
	"traiteur_devis/pkg"
)

// DepositHandler handles the deposit (acompte) payments of approved budgets.
type DepositHandler struct {
	usecase  usecase.IDepositUseCase
	mockMode bool
	log      *logrus.Logger
}

// NewDepositHandler returns a handler. With mockMode an unreadable payload is
// replaced by an empty one instead of being rejected.
func NewDepositHandler(uc usecase.IDepositUseCase, mockMode bool, log *logrus.Logger) *DepositHandler {
	return &DepositHandler{usecase: uc, mockMode: mockMode, log: log}
}

// CreateDeposit godoc
// @Summary Pay the deposit of a budget
// @Description The body is a Mercado Pago payment request, bare or wrapped in mp_payload.
// @Tags deposits
// @Accept json
// @Produce json
// @Param budget_id path string true "Budget ID"
// @Success 200 {object} response.DepositResponse
// @Failure 400 {object} pkg.HTTPError
// @Failure 409 {object} pkg.HTTPError
// @Router /deposits/{budget_id} [post]
func (h *DepositHandler) CreateDeposit(c *gin.Context) {
	budgetID := c.Param("budget_id")
	log := h.log.WithField("budget_id", budgetID)
	log.Info("[deposit][handler] create start")

	mpPayload, err := readMPPayload(c)
	if err != nil {
		if !h.mockMode {
			log.WithError(err).Info("[deposit][handler] invalid payload")
			writeError(c, errInvalidJSON)
			return
		}
		log.WithError(err).Info("[deposit][handler] payload invalid in mock mode, using empty payload")
		mpPayload = json.RawMessage("{}")
	}

	created, err := h.usecase.CreateAndApprove(c.Request.Context(), budgetID, mpPayload)
	if err != nil {
		log.WithError(err).Warn("[deposit][handler] create failed")
		writeError(c, mapDepositError(err))
		return
	}
	log.WithFields(logrus.Fields{"deposit_id": created.ID, "status": created.Status}).Info("[deposit][handler] create success")

	c.JSON(http.StatusOK, response.FromDeposit(created))
}

// GetLatestDeposit godoc
// @Summary Get the latest deposit of a budget
// @Tags deposits
// @Produce json
// @Param budget_id path string true "Budget ID"
// @Success 200 {object} response.DepositResponse
// @Failure 404 {object} pkg.HTTPError
// @Router /deposits/{budget_id} [get]
func (h *DepositHandler) GetLatestDeposit(c *gin.Context) {
	deposits, err := h.usecase.ListByBudgetID(c.Request.Context(), c.Param("budget_id"))
	if err != nil {
		writeError(c, mapDepositError(err))
		return
	}
	if len(deposits) == 0 {
		writeError(c, pkg.NewDomainErrorSimple("DEPOSIT_NOT_FOUND", "Deposit not found", http.StatusNotFound))
		return
	}

	latest := deposits[0]
	for _, p := range deposits[1:] {
		if p.Date.After(latest.Date) {
			latest = p
		}
	}
	c.JSON(http.StatusOK, response.FromDeposit(latest))
}

// ListBudgetDeposits godoc
// @Summary List every deposit attempt of a budget
// @Tags deposits
// @Produce json
// @Param id path string true "Budget ID"
// @Success 200 {array} response.DepositResponse
// @Router /budgets/{id}/deposits [get]
func (h *DepositHandler) ListBudgetDeposits(c *gin.Context) {
	deposits, err := h.usecase.ListByBudgetID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, mapDepositError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromDeposits(deposits))
}

// GetDeposit godoc
// @Summary Get a deposit by id
// @Tags deposits
// @Produce json
// @Param id path string true "Deposit ID"
// @Success 200 {object} response.DepositResponse
// @Failure 404 {object} pkg.HTTPError
// @Router /deposit-payments/{id} [get]
func (h *DepositHandler) GetDeposit(c *gin.Context) {
	deposit, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, mapDepositError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromDeposit(deposit))
}

func readMPPayload(c *gin.Context) (json.RawMessage, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("request body is not valid json")
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if wrapped, ok := envelope["mp_payload"]; ok {
			if trimmed := strings.TrimSpace(string(wrapped)); trimmed == "" || trimmed == "null" {
				return nil, errors.New("mp_payload cannot be empty")
			}
			return wrapped, nil
		}
	}

	return json.RawMessage(raw), nil
}

func mapDepositError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrPaymentGatewayBadRequest):
		return pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayCustomerNotFound):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_CUSTOMER_NOT_FOUND", "Payer not found for this Mercado Pago test context", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayInvalidUsers):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_INVALID_USERS", "Invalid users involved between seller token and payer test user", http.StatusBadRequest)
	case errors.Is(err, usecase.ErrPaymentGatewayUnauthorized):
		return pkg.NewDomainErrorSimple("PAYMENT_PROVIDER_UNAUTHORIZED", "Payment provider unauthorized", http.StatusUnauthorized)
	case errors.Is(err, usecase.ErrBudgetNotFound):
		return pkg.NewDomainErrorSimple("BUDGET_NOT_FOUND", "Budget not found", http.StatusNotFound)
	case errors.Is(err, usecase.ErrBudgetNotApproved):
		return pkg.NewDomainErrorSimple("BUDGET_NOT_APPROVED", "Budget not approved", http.StatusConflict)
	case errors.Is(err, usecase.ErrDepositNotFound):
		return pkg.NewDomainErrorSimple("DEPOSIT_NOT_FOUND", "Deposit not found", http.StatusNotFound)
	default:
		return mapKindError(err)
	}
}
