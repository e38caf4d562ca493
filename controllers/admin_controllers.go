package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/yeremiapane/table-reservation/models"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

type AdminController struct {
	Ledger   *services.BookingLedger
	Tables   *services.TableRegistry
	Unbooked *services.UnbookedLedger
}

func NewAdminController(ledger *services.BookingLedger, tables *services.TableRegistry, unbooked *services.UnbookedLedger) *AdminController {
	return &AdminController{Ledger: ledger, Tables: tables, Unbooked: unbooked}
}

// GetDashboardStats summarises the bookings of one day (today by default).
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	date := c.DefaultQuery("date", time.Now().Format(models.DateLayout))
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		respondServiceError(c, services.Invalid("date", "must be formatted as YYYY-MM-DD"))
		return
	}

	ctx := c.Request.Context()
	bookings, err := ac.Ledger.ListAll(ctx, services.BookingFilter{Date: date})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tables, err := ac.Tables.ListActive(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	incidents, err := ac.Unbooked.List(ctx, true)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	holding := lo.Filter(bookings, func(b models.Booking, _ int) bool { return b.Holds() })
	covers := lo.SumBy(holding, func(b models.Booking) int { return b.PartySize })
	unassigned := lo.CountBy(holding, func(b models.Booking) bool { return b.TableNumber == nil })
	byStatus := lo.MapValues(
		lo.GroupBy(bookings, func(b models.Booking) string { return b.Status }),
		func(group []models.Booking, _ string) int { return len(group) },
	)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"date":              date,
		"bookings":          len(bookings),
		"by_status":         byStatus,
		"covers":            covers,
		"unassigned":        unassigned,
		"active_tables":     len(tables),
		"seats":             lo.SumBy(tables, func(t models.Table) int { return t.Capacity }),
		"unbooked_payments": len(incidents),
	})
}

// GetUnbookedPayments -> captured payments that never became a booking
func (ac *AdminController) GetUnbookedPayments(c *gin.Context) {
	onlyOpen := c.Query("open") == "true"
	incidents, err := ac.Unbooked.List(c.Request.Context(), onlyOpen)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unbooked payments", incidents)
}

// ResolveUnbookedPayment -> marks an incident as refunded or otherwise handled
func (ac *AdminController) ResolveUnbookedPayment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondServiceError(c, services.Invalid("id", "must be a positive integer"))
		return
	}

	incident, err := ac.Unbooked.Resolve(c.Request.Context(), uint(id))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Unbooked payment resolved", incident)
}
