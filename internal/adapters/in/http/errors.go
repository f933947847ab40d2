package http

import (
	"errors"
	"net/http"

	"fulfillment/internal/core/application/services"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/domain/model/compliance"
	"fulfillment/internal/core/domain/model/fulfillment"
	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/shipment"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// writeError maps use case errors to HTTP responses. Anything unrecognized is
// logged and reported as 500 without internal detail.
func (s *Server) writeError(ctx echo.Context, op string, err error) error {
	var blocked *compliance.BlockedError
	if errors.As(err, &blocked) {
		items := make([]BlockedItem, len(blocked.Items))
		for i, b := range blocked.Items {
			items[i] = BlockedItem{
				SKU:          b.Item.SKU(),
				ReasonCode:   b.Verdict.ReasonCode,
				Reason:       b.Verdict.Reason,
				RestrictedBy: b.Verdict.RestrictedBy.String(),
			}
		}
		return ctx.JSON(http.StatusUnprocessableEntity, ComplianceError{
			Code:         http.StatusUnprocessableEntity,
			Message:      compliance.ErrComplianceBlocked.Error(),
			BlockedItems: items,
		})
	}

	var invalid *ihstatus.InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		return ctx.JSON(http.StatusConflict, Error{Code: http.StatusConflict, Message: invalid.Error()})
	case errors.Is(err, ihstatus.ErrStaleState):
		return ctx.JSON(http.StatusConflict, Error{Code: http.StatusConflict, Message: err.Error(), Retryable: true})
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: err.Error()})
	case errors.Is(err, commands.ErrPaymentNotApproved):
		return ctx.JSON(http.StatusPaymentRequired, Error{Code: http.StatusPaymentRequired, Message: err.Error()})
	case errors.Is(err, fulfillment.ErrClassificationMismatch),
		errors.Is(err, shipment.ErrNotIHFulfilled),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return ctx.JSON(http.StatusBadRequest, Error{Code: http.StatusBadRequest, Message: err.Error()})
	case errors.Is(err, services.ErrNumberMintCollision):
		return ctx.JSON(http.StatusServiceUnavailable, Error{
			Code:      http.StatusServiceUnavailable,
			Message:   "Order numbering is temporarily unavailable",
			Retryable: true,
		})
	}

	s.logger.ErrorContext(ctx.Request().Context(), "Request failed", "op", op, "error", err)
	return ctx.JSON(http.StatusInternalServerError, Error{
		Code:    http.StatusInternalServerError,
		Message: "Failed to " + op,
	})
}
