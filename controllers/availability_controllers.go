package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

type AvailabilityController struct {
	Resolver *services.AvailabilityResolver
}

func NewAvailabilityController(resolver *services.AvailabilityResolver) *AvailabilityController {
	return &AvailabilityController{Resolver: resolver}
}

type availabilityQuery struct {
	Date      string `form:"date" binding:"required"`
	Time      string `form:"time" binding:"required"`
	PartySize int    `form:"party_size" binding:"required"`
	Area      string `form:"area"`
}

// GetAvailability -> tables free for a party at a slot, smallest first
func (ac *AvailabilityController) GetAvailability(c *gin.Context) {
	var q availabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	tables, err := ac.Resolver.FindAvailable(c.Request.Context(), services.AvailabilityQuery{
		Date:      q.Date,
		Time:      q.Time,
		PartySize: q.PartySize,
		Area:      q.Area,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Available tables", gin.H{
		"date":       q.Date,
		"time":       q.Time,
		"party_size": q.PartySize,
		"tables":     tables,
	})
}
