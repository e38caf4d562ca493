package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yeremiapane/table-reservation/middlewares"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

type BookingController struct {
	Reservations *services.ReservationService
	Lifecycle    *services.LifecycleController
}

func NewBookingController(reservations *services.ReservationService, lifecycle *services.LifecycleController) *BookingController {
	return &BookingController{Reservations: reservations, Lifecycle: lifecycle}
}

type guestRequest struct {
	UserID          uint   `json:"user_id"`
	GuestName       string `json:"guest_name" binding:"required"`
	GuestEmail      string `json:"guest_email" binding:"required"`
	GuestPhone      string `json:"guest_phone" binding:"required"`
	PartySize       int    `json:"party_size" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Time            string `json:"time" binding:"required"`
	TableNumber     *int   `json:"table_number"`
	Area            string `json:"area"`
	SpecialRequests string `json:"special_requests"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

func (r guestRequest) draft() services.BookingDraft {
	return services.BookingDraft{
		UserID:          r.UserID,
		GuestName:       r.GuestName,
		GuestEmail:      r.GuestEmail,
		GuestPhone:      r.GuestPhone,
		PartySize:       r.PartySize,
		Date:            r.Date,
		Time:            r.Time,
		TableNumber:     r.TableNumber,
		Area:            r.Area,
		SpecialRequests: r.SpecialRequests,
		Amount:          r.Amount,
		Currency:        r.Currency,
	}
}

type createBookingRequest struct {
	guestRequest
	Payment services.PaymentClaim `json:"payment" binding:"required"`
}

type statusRequest struct {
	Status      string                 `json:"status" binding:"required"`
	TableNumber *int                   `json:"table_number"`
	Payment     *services.PaymentClaim `json:"payment"`
}

type assignTableRequest struct {
	TableNumber int `json:"table_number" binding:"required"`
}

func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	return p, ok
}

// CreateBooking -> paid booking, confirmed on success
func (bc *BookingController) CreateBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		bindError(c, err)
		return
	}

	draft := req.draft()
	draft.UserID = p.UserID
	booking, err := bc.Reservations.CreateBooking(c.Request.Context(), p, services.BookingRequest{
		Draft:   draft,
		Payment: req.Payment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Booking confirmed", booking)
}

// GetBookings -> own bookings, or all bookings for admins
func (bc *BookingController) GetBookings(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	bookings, err := bc.Reservations.List(c.Request.Context(), p, services.BookingFilter{
		Date:   c.Query("date"),
		Status: c.Query("status"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bookings", bookings)
}

func (bc *BookingController) GetBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	booking, err := bc.Reservations.Get(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking detail", booking)
}

// CancelBooking -> owners cancel pending bookings, admins any open one
func (bc *BookingController) CancelBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	booking, err := bc.Lifecycle.Cancel(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", booking)
}

// CreateManualBooking -> admin books for a walk-in or phone guest
func (bc *BookingController) CreateManualBooking(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booking, err := bc.Reservations.CreateManual(c.Request.Context(), p, req.draft())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Booking created", booking)
}

// UpdateBookingStatus -> lifecycle transition with optional table and payment
func (bc *BookingController) UpdateBookingStatus(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booking, err := bc.Lifecycle.Transition(c.Request.Context(), c.Param("id"), req.Status, p, services.TransitionOptions{
		TableNumber: req.TableNumber,
		Payment:     req.Payment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking status updated", booking)
}

// AssignTable -> sets or moves the table of an open booking
func (bc *BookingController) AssignTable(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req assignTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	booking, err := bc.Lifecycle.AssignTable(c.Request.Context(), c.Param("id"), req.TableNumber, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table assigned", booking)
}
