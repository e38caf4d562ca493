package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

// respondServiceError writes err with the HTTP status matching its kind.
func respondServiceError(c *gin.Context, err error) {
	var pbu *services.PaidButUnbookedError
	if errors.As(err, &pbu) {
		utils.RespondErrorCode(c, http.StatusConflict, string(services.KindPaidButUnbooked), err, gin.H{
			"cause":      services.CodeOf(pbu.Cause),
			"order_id":   pbu.OrderID,
			"payment_id": pbu.PaymentID,
			"amount":     pbu.Amount,
			"currency":   pbu.Currency,
		})
		return
	}

	code := services.CodeOf(err)
	utils.RespondErrorCode(c, statusFor(err), code, publicError(err), nil)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrCapacityExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPaymentAlreadyUsed):
		return http.StatusConflict
	}

	switch services.KindOf(err) {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindPayment:
		return http.StatusPaymentRequired
	case services.KindConflict, services.KindInvalidTransition:
		return http.StatusConflict
	case services.KindAuthorization:
		return http.StatusForbidden
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicError hides internal failures from clients.
func publicError(err error) error {
	if services.KindOf(err) == services.KindInternal {
		utils.ErrorLogger.Errorf("Internal error: %v", err)
		return errors.New("internal server error")
	}
	return err
}

func bindError(c *gin.Context, err error) {
	utils.RespondErrorCode(c, http.StatusBadRequest, "validation_failed", err, nil)
}
