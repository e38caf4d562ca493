package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/services"
	"github.com/yeremiapane/table-reservation/utils"
)

type TableController struct {
	Tables *services.TableRegistry
}

func NewTableController(tables *services.TableRegistry) *TableController {
	return &TableController{Tables: tables}
}

type tableRequest struct {
	Number   int      `json:"number" binding:"required"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity" binding:"required"`
	Area     string   `json:"area"`
	Status   string   `json:"status"`
	Features []string `json:"features"`
	Active   *bool    `json:"active"`
}

type tablePatchRequest struct {
	Name     *string   `json:"name"`
	Capacity *int      `json:"capacity"`
	Area     *string   `json:"area"`
	Status   *string   `json:"status"`
	Features *[]string `json:"features"`
	Active   *bool     `json:"active"`
}

func tableNumberParam(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		respondServiceError(c, services.Invalid("number", "must be a positive integer"))
		return 0, false
	}
	return number, true
}

// CreateTable -> adds a table to the floor plan
func (tc *TableController) CreateTable(c *gin.Context) {
	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := tc.Tables.Create(c.Request.Context(), services.TableSpec{
		Number:   req.Number,
		Name:     req.Name,
		Capacity: req.Capacity,
		Area:     req.Area,
		Status:   req.Status,
		Features: req.Features,
		Active:   req.Active,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetActiveTables -> tables open for booking
func (tc *TableController) GetActiveTables(c *gin.Context) {
	tables, err := tc.Tables.ListActive(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetAllTables -> every table, inactive ones included
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	number, ok := tableNumberParam(c)
	if !ok {
		return
	}
	table, err := tc.Tables.Get(c.Request.Context(), number)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTable -> partial update; the number itself is immutable
func (tc *TableController) UpdateTable(c *gin.Context) {
	number, ok := tableNumberParam(c)
	if !ok {
		return
	}

	var req tablePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := tc.Tables.Update(c.Request.Context(), number, services.TablePatch{
		Name:     req.Name,
		Capacity: req.Capacity,
		Area:     req.Area,
		Status:   req.Status,
		Features: req.Features,
		Active:   req.Active,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> refuses tables still held by a booking
func (tc *TableController) DeleteTable(c *gin.Context) {
	number, ok := tableNumberParam(c)
	if !ok {
		return
	}

	if err := tc.Tables.Delete(c.Request.Context(), number); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"number": number})
}
