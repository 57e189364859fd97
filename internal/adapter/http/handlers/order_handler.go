package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	request "traiteur_devis/internal/adapter/http/dto/request"
	response "traiteur_devis/internal/adapter/http/dto/response"
	"traiteur_devis/internal/usecase"
	"traiteur_devis/pkg"
)

var errInvalidOrderPayload = pkg.NewDomainErrorSimple("INVALID_ORDER_INPUT", "Invalid order payload", http.StatusBadRequest)

// OrderHandler serves the public quote form.
type OrderHandler struct {
	usecase usecase.IOrderUseCase
	log     *logrus.Logger
}

func NewOrderHandler(uc usecase.IOrderUseCase, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{usecase: uc, log: log}
}

// CreateOrder godoc
// @Summary Submit a devis request
// @Tags orders
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param order body request.OrderRequest true "Quote form"
// @Success 201 {object} response.OrderResponse
// @Failure 400 {object} pkg.HTTPError
// @Failure 429 {object} pkg.HTTPError
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var payload request.OrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeError(c, errInvalidOrderPayload)
		return
	}

	order, err := h.usecase.SubmitOrder(c.Request.Context(), payload.ToEntity())
	if err != nil {
		h.log.WithError(err).Info("[order][handler] submit failed")
		writeError(c, mapOrderError(err))
		return
	}

	c.JSON(http.StatusCreated, response.FromOrder(order))
}

// GetOrder godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} response.OrderResponse
// @Failure 404 {object} pkg.HTTPError
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.usecase.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, mapOrderError(err))
		return
	}
	c.JSON(http.StatusOK, response.FromOrder(order))
}

func mapOrderError(err error) *pkg.AppError {
	switch {
	case errors.Is(err, usecase.ErrOrderNotFound):
		return pkg.NewDomainErrorSimple("ORDER_NOT_FOUND", "Order not found", http.StatusNotFound)
	default:
		return mapKindError(err)
	}
}
