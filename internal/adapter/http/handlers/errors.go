package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"traiteur_devis/internal/domain/entities"
	"traiteur_devis/pkg"
)

var errInvalidJSON = pkg.NewDomainErrorSimple("INVALID_REQUEST", "Invalid request", http.StatusBadRequest)

// mapKindError maps the shared error kinds. Handler-specific mappers fall back
// to it for anything they do not name.
func mapKindError(err error) *pkg.AppError {
	var validation *entities.ValidationError
	var validations entities.ValidationErrors
	switch {
	case errors.As(err, &validations), errors.As(err, &validation):
		return pkg.NewDomainError("INVALID_REQUEST", err.Error(), err, http.StatusBadRequest)
	case errors.Is(err, entities.ErrValidation):
		return pkg.NewDomainError("INVALID_REQUEST", "Invalid request", err, http.StatusBadRequest)
	case errors.Is(err, entities.ErrNotFound):
		return pkg.NewDomainError("NOT_FOUND", "Resource not found", err, http.StatusNotFound)
	case errors.Is(err, entities.ErrUpstreamParse):
		return pkg.NewDomainError("PRICING_RESPONSE_INVALID", "The pricing assistant returned an unusable budget", err, http.StatusBadGateway)
	case errors.Is(err, entities.ErrInvariantViolation):
		return pkg.NewDomainError("INVARIANT_VIOLATION", "The budget failed an internal consistency check", err, http.StatusInternalServerError)
	case errors.Is(err, entities.ErrDependencyFailure):
		return pkg.NewDomainError("DEPENDENCY_FAILURE", "An upstream service failed", err, http.StatusBadGateway)
	default:
		return pkg.NewDomainError("INTERNAL_ERROR", "An internal error occurred", err, http.StatusInternalServerError)
	}
}

func writeError(c *gin.Context, appErr *pkg.AppError) {
	c.JSON(appErr.HTTPStatus, appErr.ToHTTPError())
}
