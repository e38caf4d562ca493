package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAvailability(t *testing.T) {
	app := setupTestApp(t)
	app.table(t, 1, 2)
	app.table(t, 2, 6)
	app.table(t, 3, 4)

	w, response := app.do(t, http.MethodGet, "/availability?date="+testDate+"&time="+testTime+"&party_size=3", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Available tables", response["message"])

	data := dataMap(t, response)
	tables, ok := data["tables"].([]interface{})
	require.True(t, ok)
	require.Len(t, tables, 2)
	assert.Equal(t, float64(3), tables[0].(map[string]interface{})["number"])
	assert.Equal(t, float64(2), tables[1].(map[string]interface{})["number"])

	// A paid booking on table 3 removes it from the answer.
	body := bookingBody(3, 3, app.payment(1000))
	w, _ = app.do(t, http.MethodPost, "/bookings", app.token(t, app.customer), body)
	require.Equal(t, http.StatusCreated, w.Code)

	_, response = app.do(t, http.MethodGet, "/availability?date="+testDate+"&time="+testTime+"&party_size=3", "", nil)
	tables = dataMap(t, response)["tables"].([]interface{})
	require.Len(t, tables, 1)
	assert.Equal(t, float64(2), tables[0].(map[string]interface{})["number"])

	_, response = app.do(t, http.MethodGet, "/availability?date="+testDate+"&time="+testTime+"&party_size=12", "", nil)
	assert.Empty(t, dataMap(t, response)["tables"])
}

func TestGetAvailability_BadQuery(t *testing.T) {
	app := setupTestApp(t)

	for _, query := range []string{
		"",
		"?date=" + testDate + "&time=" + testTime,
		"?date=tomorrow&time=" + testTime + "&party_size=2",
		"?date=" + testDate + "&time=" + testTime + "&party_size=2&area=cellar",
	} {
		w, response := app.do(t, http.MethodGet, "/availability"+query, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
		assert.Equal(t, "validation_failed", response["code"], query)
	}
}
